// Package bcache is a write-through block cache in front of a disk.Disk.
//
// Writes go to the device first and reach the cache only once the device
// accepted them, so the cache never holds a block the device lacks. Reads
// return private copies.
package bcache

import (
	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/lockmap"
	"github.com/mit-pdos/go-assoofs/shardmap"
	"github.com/mit-pdos/go-assoofs/util"
)

var _ disk.Disk = (*Bcache)(nil)

type Bcache struct {
	d     disk.Disk
	cache *shardmap.BlockMap
	locks *lockmap.LockMap
}

func MkBcache(d disk.Disk) *Bcache {
	return &Bcache{
		d:     d,
		cache: shardmap.MkBlockMap(),
		locks: lockmap.MkLockMap(),
	}
}

func (bc *Bcache) Read(bn common.Bnum) (disk.Block, error) {
	if blk, ok := bc.cache.Read(bn); ok {
		util.DPrintf(15, "bcache: hit %d\n", bn)
		return blk, nil
	}
	bc.locks.Acquire(bn)
	defer bc.locks.Release(bn)
	// another reader may have filled it while we waited
	if blk, ok := bc.cache.Read(bn); ok {
		return blk, nil
	}
	util.DPrintf(15, "bcache: miss %d\n", bn)
	blk, err := bc.d.Read(bn)
	if err != nil {
		return nil, err
	}
	bc.cache.Write(bn, blk)
	return blk, nil
}

func (bc *Bcache) ReadTo(bn common.Bnum, b disk.Block) error {
	if uint64(len(b)) != disk.BlockSize {
		panic("buffer is not block-sized")
	}
	blk, err := bc.Read(bn)
	if err != nil {
		return err
	}
	copy(b, blk)
	return nil
}

func (bc *Bcache) Write(bn common.Bnum, v disk.Block) error {
	bc.locks.Acquire(bn)
	defer bc.locks.Release(bn)
	if err := bc.d.Write(bn, v); err != nil {
		// the device state of bn is unknown now
		bc.cache.Del(bn)
		return err
	}
	bc.cache.Write(bn, v)
	return nil
}

func (bc *Bcache) Size() (uint64, error) {
	return bc.d.Size()
}

func (bc *Bcache) Barrier() error {
	return bc.d.Barrier()
}

// Invalidate drops all cached blocks, forcing the next reads to go to the
// device.
func (bc *Bcache) Invalidate() {
	util.DPrintf(5, "bcache: invalidate %d blocks\n", bc.cache.Len())
	bc.cache.Clear()
}

func (bc *Bcache) Close() error {
	bc.cache.Clear()
	return bc.d.Close()
}

func (bc *Bcache) Cached() uint64 {
	return bc.cache.Len()
}
