// buf manages sub-block disk objects, packed into disk blocks
package buf

import (
	"fmt"

	"github.com/mit-pdos/go-assoofs/addr"
	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/util"
)

// A Buf is a write to a disk object (an inode record, a directory entry, or
// a whole disk block)
type Buf struct {
	Addr addr.Addr
	Sz   uint64 // number of bits
	Data []byte
}

func MkBuf(addr addr.Addr, sz uint64, data []byte) *Buf {
	if uint64(len(data))*8 != sz {
		panic(fmt.Sprintf("MkBuf: %d bytes for %d bits", len(data), sz))
	}
	b := &Buf{
		Addr: addr,
		Sz:   sz,
		Data: data,
	}
	return b
}

// Load the bits of a disk block into a new buf, as specified by addr. The
// buf's data is a copy; the block is not retained.
func MkBufLoad(addr addr.Addr, sz uint64, blk disk.Block) *Buf {
	checkAligned(addr, sz)
	bytefirst := addr.ByteOff()
	data := util.CloneByteSlice(blk[bytefirst : bytefirst+sz/8])
	return MkBuf(addr, sz, data)
}

func checkAligned(a addr.Addr, sz uint64) {
	if a.Off%8 != 0 || sz%8 != 0 {
		panic("unaligned disk object")
	}
	if a.Off+sz > common.NBITBLOCK {
		panic("disk object crosses block boundary")
	}
}

// Install the bytes from buf into blk.
func (buf *Buf) Install(blk disk.Block) {
	checkAligned(buf.Addr, buf.Sz)
	util.DPrintf(20, "%v: install\n", buf.Addr)
	copy(blk[buf.Addr.ByteOff():], buf.Data)
}

// WriteDirect installs buf into its block on d, reading the block first
// unless buf covers it entirely.
func (buf *Buf) WriteDirect(d disk.Disk) error {
	blk := buf.Data
	if buf.Sz != common.NBITBLOCK {
		var err error
		blk, err = d.Read(buf.Addr.Blkno)
		if err != nil {
			return err
		}
		buf.Install(blk)
	}
	return d.Write(buf.Addr.Blkno, blk)
}
