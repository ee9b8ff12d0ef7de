// Package super is the superblock manager: the filesystem-wide metadata in
// block 0 and the free-block bitmap it carries.
package super

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-assoofs/alloc"
	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/util"
)

// Super is the in-memory copy of block 0. It is owned by one mounted
// instance and passed explicitly to the stores.
type Super struct {
	Version     uint64
	Magic       uint64
	BlockSize   uint64
	InodesCount uint64
	FreeBlocks  uint64 // bit i set means block i is free
}

// MkSuper returns a superblock for a fresh filesystem with the given
// object count and free-block bitmap.
func MkSuper(inodes uint64, free uint64) *Super {
	return &Super{
		Version:     common.VERSION,
		Magic:       common.MAGIC,
		BlockSize:   common.BLOCKSIZE,
		InodesCount: inodes,
		FreeBlocks:  free,
	}
}

func (sb *Super) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt(sb.Version)
	enc.PutInt(sb.Magic)
	enc.PutInt(sb.BlockSize)
	enc.PutInt(sb.InodesCount)
	enc.PutInt(sb.FreeBlocks)
	return enc.Finish()
}

func Decode(blk disk.Block) *Super {
	dec := marshal.NewDec(blk)
	sb := &Super{}
	sb.Version = dec.GetInt()
	sb.Magic = dec.GetInt()
	sb.BlockSize = dec.GetInt()
	sb.InodesCount = dec.GetInt()
	sb.FreeBlocks = dec.GetInt()
	return sb
}

func (sb *Super) Copy() *Super {
	sb2 := *sb
	return &sb2
}

func (sb *Super) String() string {
	return fmt.Sprintf("v%d magic %#x bsize %d inodes %d free %#016x",
		sb.Version, sb.Magic, sb.BlockSize, sb.InodesCount, sb.FreeBlocks)
}

// Mount reads and validates block 0. No Super is returned unless the magic
// number and block size match.
func Mount(d disk.Disk) (*Super, error) {
	blk, err := d.Read(uint64(common.SUPERBLK))
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb := Decode(blk)
	if sb.Magic != common.MAGIC {
		return nil, fmt.Errorf("magic %#x, expected %#x: %w",
			sb.Magic, common.MAGIC, common.ErrFormatMismatch)
	}
	if sb.BlockSize != common.BLOCKSIZE {
		return nil, fmt.Errorf("block size %d, expected %d: %w",
			sb.BlockSize, common.BLOCKSIZE, common.ErrFormatMismatch)
	}
	if err := sb.check(); err != nil {
		return nil, err
	}
	util.DPrintf(1, "Mount: %v\n", sb)
	return sb, nil
}

func (sb *Super) check() error {
	if sb.InodesCount > common.MAXOBJECTS {
		return fmt.Errorf("inodes count %d exceeds %d: %w",
			sb.InodesCount, common.MAXOBJECTS, common.ErrCorrupt)
	}
	if sb.FreeBlocks&0b11 != 0 {
		return fmt.Errorf("superblock or inode store marked free: %w",
			common.ErrCorrupt)
	}
	return nil
}

// Persist writes the whole superblock to block 0.
func (sb *Super) Persist(d disk.Disk) error {
	if err := d.Write(uint64(common.SUPERBLK), sb.Encode()); err != nil {
		return fmt.Errorf("persisting superblock: %w", err)
	}
	return nil
}

func (sb *Super) allocator() alloc.Alloc {
	return alloc.MkAlloc(sb.FreeBlocks, common.FIRSTFREEBLK, common.MAXOBJECTS)
}

// AllocBlock takes the lowest free block at or above FIRSTFREEBLK. The
// updated bitmap is persisted before sb changes, so a failed write leaves
// sb as it was.
func (sb *Super) AllocBlock(d disk.Disk) (common.Bnum, error) {
	a := sb.allocator()
	bn, ok := a.AllocNum()
	if !ok {
		return 0, fmt.Errorf("allocating block: %w", common.ErrNoFreeBlocks)
	}
	sb2 := sb.Copy()
	sb2.FreeBlocks = a.Bits()
	if err := sb2.Persist(d); err != nil {
		return 0, err
	}
	*sb = *sb2
	util.DPrintf(1, "AllocBlock: %d\n", bn)
	return common.Bnum(bn), nil
}

// SetInodesCount persists sb with n objects, then adopts it.
func (sb *Super) SetInodesCount(d disk.Disk, n uint64) error {
	sb2 := sb.Copy()
	sb2.InodesCount = n
	if err := sb2.Persist(d); err != nil {
		return err
	}
	*sb = *sb2
	return nil
}

// IsAllocated reports whether bn is marked in use.
func (sb *Super) IsAllocated(bn common.Bnum) bool {
	return !sb.allocator().IsFree(uint64(bn))
}

// NumFree counts the blocks AllocBlock can still hand out.
func (sb *Super) NumFree() uint64 {
	return sb.allocator().NumFree()
}
