package fs

import (
	"fmt"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/inode"
	"github.com/mit-pdos/go-assoofs/util"
)

// A file's body is its one data block; sizes never exceed a block.

func (fs *FS) getFile(inum common.Inum) (*inode.Inode, error) {
	ip, err := fs.inodes.Get(fs.sb, inum)
	if err != nil {
		return nil, err
	}
	if !ip.Mode.IsRegular() {
		return nil, fmt.Errorf("inode %d: %w", inum, common.ErrNotRegular)
	}
	if err := checkBounds(ip); err != nil {
		return nil, err
	}
	return ip, nil
}

// Read returns up to count bytes of file inum starting at off. Reading at
// or past the end returns no bytes.
func (fs *FS) Read(inum common.Inum, off uint64, count uint64) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	ip, err := fs.getFile(inum)
	if err != nil {
		return nil, fmt.Errorf("reading %d: %w", inum, err)
	}
	if off >= ip.Size || count == 0 {
		return []byte{}, nil
	}
	n := util.Min(count, ip.Size-off)
	blk, err := fs.d.Read(ip.Data)
	if err != nil {
		return nil, fmt.Errorf("reading %d: %w", inum, err)
	}
	return blk[off : off+n], nil
}

// ReadAll returns the whole body of file inum.
func (fs *FS) ReadAll(inum common.Inum) ([]byte, error) {
	return fs.Read(inum, 0, disk.BlockSize)
}

// Write stores data at off in file inum, growing the file if the write
// ends past its size. The body is written before the size, so an
// interrupted write never exposes bytes that were not written.
func (fs *FS) Write(inum common.Inum, off uint64, data []byte) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.mounted(); err != nil {
		return 0, err
	}
	n, err := fs.write(inum, off, data)
	if err != nil {
		return 0, fmt.Errorf("writing %d: %w", inum, err)
	}
	return n, nil
}

func (fs *FS) write(inum common.Inum, off uint64, data []byte) (uint64, error) {
	ip, err := fs.getFile(inum)
	if err != nil {
		return 0, err
	}
	count := uint64(len(data))
	if util.SumOverflows(off, count) || off+count > disk.BlockSize {
		return 0, fmt.Errorf("%d bytes at %d: %w", count, off, common.ErrFileTooBig)
	}
	if count == 0 {
		return 0, nil
	}
	blk, err := fs.d.Read(ip.Data)
	if err != nil {
		return 0, err
	}
	// bytes between the old end and off read as zero
	for i := ip.Size; i < off; i++ {
		blk[i] = 0
	}
	copy(blk[off:], data)
	if err := fs.d.Write(ip.Data, blk); err != nil {
		return 0, err
	}
	if off+count > ip.Size {
		ip.Size = off + count
		if err := fs.inodes.Update(fs.sb, ip); err != nil {
			return 0, err
		}
	}
	util.DPrintf(5, "fs %v: write %d: %d bytes at %d\n", fs.id, inum, count, off)
	return count, nil
}

// Truncate sets the size of file inum; growing a file exposes zeroes.
func (fs *FS) Truncate(inum common.Inum, size uint64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.mounted(); err != nil {
		return err
	}
	ip, err := fs.getFile(inum)
	if err != nil {
		return fmt.Errorf("truncating %d: %w", inum, err)
	}
	if size > disk.BlockSize {
		return fmt.Errorf("truncating %d to %d: %w", inum, size, common.ErrFileTooBig)
	}
	if size > ip.Size {
		blk, err := fs.d.Read(ip.Data)
		if err != nil {
			return fmt.Errorf("truncating %d: %w", inum, err)
		}
		for i := ip.Size; i < size; i++ {
			blk[i] = 0
		}
		if err := fs.d.Write(ip.Data, blk); err != nil {
			return fmt.Errorf("truncating %d: %w", inum, err)
		}
	}
	ip.Size = size
	if err := fs.inodes.Update(fs.sb, ip); err != nil {
		return fmt.Errorf("truncating %d: %w", inum, err)
	}
	return nil
}
