package disk

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/util"
)

var _ Disk = (*fileDisk)(nil)

type fileDisk struct {
	fd        int
	numBlocks uint64
}

// NewFileDisk opens (or creates) the image file at path as a disk of
// numBlocks blocks. A regular file is resized to exactly numBlocks blocks.
func NewFileDisk(path string, numBlocks uint64) (*fileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening disk image `%s`: %w", path, err)
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat disk image `%s`: %w", path, err)
	}
	if (stat.Mode&unix.S_IFMT) == unix.S_IFREG && uint64(stat.Size) != numBlocks*BlockSize {
		err = unix.Ftruncate(fd, int64(numBlocks*BlockSize))
		if err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("sizing disk image `%s`: %w", path, err)
		}
	}
	util.DPrintf(1, "NewFileDisk: %s %d blocks\n", path, numBlocks)
	return &fileDisk{fd, numBlocks}, nil
}

// OpenFileDisk opens an existing image file, sizing the disk from the file.
func OpenFileDisk(path string) (*fileDisk, error) {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return nil, fmt.Errorf("stat disk image `%s`: %w", path, err)
	}
	return NewFileDisk(path, uint64(stat.Size)/BlockSize)
}

func (d *fileDisk) ReadTo(a uint64, buf Block) error {
	checkBlock(buf)
	if a >= d.numBlocks {
		return fmt.Errorf("reading block %d: %w", a, common.ErrOutOfRange)
	}
	n, err := unix.Pread(d.fd, buf, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("reading block %d: %w", a, err)
	}
	// a short read past the end of a sparse or truncated image is zeroes
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	util.DPrintf(20, "read: %d\n", a)
	return nil
}

func (d *fileDisk) Read(a uint64) (Block, error) {
	buf := make([]byte, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *fileDisk) Write(a uint64, v Block) error {
	checkBlock(v)
	if a >= d.numBlocks {
		return fmt.Errorf("writing block %d: %w", a, common.ErrOutOfRange)
	}
	_, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("writing block %d: %w", a, err)
	}
	util.DPrintf(20, "write: %d\n", a)
	return nil
}

func (d *fileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *fileDisk) Barrier() error {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	err := unix.Fsync(d.fd)
	if err != nil {
		return fmt.Errorf("file sync: %w", err)
	}
	util.DPrintf(20, "barrier\n")
	return nil
}

func (d *fileDisk) Close() error {
	return unix.Close(d.fd)
}

/////////////////////////
/////////////////////////
/////////////////////////
/////////////////////////

var _ Disk = (*memDisk)(nil)

type memDisk struct {
	l      *sync.RWMutex
	blocks [][BlockSize]byte
}

func NewMemDisk(numBlocks uint64) *memDisk {
	blocks := make([][BlockSize]byte, numBlocks)
	return &memDisk{l: new(sync.RWMutex), blocks: blocks}
}

func (d *memDisk) ReadTo(a uint64, buf Block) error {
	checkBlock(buf)
	d.l.RLock()
	defer d.l.RUnlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("reading block %d: %w", a, common.ErrOutOfRange)
	}
	copy(buf, d.blocks[a][:])
	return nil
}

func (d *memDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *memDisk) Write(a uint64, v Block) error {
	checkBlock(v)
	d.l.Lock()
	defer d.l.Unlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("writing block %d: %w", a, common.ErrOutOfRange)
	}
	copy(d.blocks[a][:], v)
	return nil
}

func (d *memDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks)), nil
}

func (d *memDisk) Barrier() error { return nil }

func (d *memDisk) Close() error { return nil }
