package addr

import (
	"github.com/mit-pdos/go-assoofs/common"
)

// Addr identifies the start of a disk object.
//
// Blkno is the block number containing the object, and Off is the location of
// the object within the block (expressed as a bit offset). The size of the
// object is determined by the context in which Addr is used.
type Addr struct {
	Blkno common.Bnum
	Off   uint64 // offset in bits
}

// ByteOff is the object's offset in bytes; objects here are byte-aligned.
func (a Addr) ByteOff() uint64 {
	return a.Off / 8
}

func MkAddr(blkno common.Bnum, off uint64) Addr {
	return Addr{Blkno: blkno, Off: off}
}

// MkSlotAddr addresses slot i of an array of sz-byte records in blkno.
func MkSlotAddr(blkno common.Bnum, sz uint64, i uint64) Addr {
	return MkAddr(blkno, i*sz*8)
}
