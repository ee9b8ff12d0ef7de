package disk

import (
	"github.com/mit-pdos/go-assoofs/common"
)

// Block is a 4096-byte buffer
type Block = []byte

const BlockSize uint64 = common.BLOCKSIZE

// Disk provides access to a logical block-based disk
//
// A single Write of one block is assumed to be atomic with respect to
// crashes. I/O failures are returned, never retried.
type Disk interface {
	// Read reads a disk block by address
	//
	// Returns common.ErrOutOfRange if a >= Size().
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	//
	// Returns common.ErrOutOfRange if a >= Size().
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

func checkBlock(v Block) {
	if uint64(len(v)) != BlockSize {
		panic("buffer is not block-sized")
	}
}
