package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-assoofs/addr"
	"github.com/mit-pdos/go-assoofs/buf"
	"github.com/mit-pdos/go-assoofs/common"
)

// Mode is the on-disk mode_t: a file-type discriminator plus permission
// bits.
type Mode uint32

const (
	S_IFMT  Mode = 0170000
	S_IFDIR Mode = 0040000
	S_IFREG Mode = 0100000

	PermMask Mode = 07777
)

func (m Mode) IsDir() bool {
	return m&S_IFMT == S_IFDIR
}

func (m Mode) IsRegular() bool {
	return m&S_IFMT == S_IFREG
}

func (m Mode) Perm() Mode {
	return m & PermMask
}

func (m Mode) String() string {
	switch {
	case m.IsDir():
		return fmt.Sprintf("dir %04o", uint32(m.Perm()))
	case m.IsRegular():
		return fmt.Sprintf("file %04o", uint32(m.Perm()))
	default:
		return fmt.Sprintf("unknown %07o", uint32(m))
	}
}

// Inode is one record of the inode store.
//
// The last on-disk word is interpreted by Mode: Size for regular files,
// NChildren for directories. Only the field matching the kind is encoded
// or decoded; the other is always zero in a decoded Inode.
type Inode struct {
	Mode      Mode
	Inum      common.Inum
	Data      common.Bnum // the object's one content block
	Size      uint64      // regular files only
	NChildren uint64      // directories only
}

func MkFile(inum common.Inum, perm Mode) *Inode {
	return &Inode{Mode: S_IFREG | perm.Perm(), Inum: inum}
}

func MkDir(inum common.Inum, perm Mode) *Inode {
	return &Inode{Mode: S_IFDIR | perm.Perm(), Inum: inum}
}

func (ip *Inode) Copy() *Inode {
	ip2 := *ip
	return &ip2
}

func (ip *Inode) String() string {
	if ip.Mode.IsDir() {
		return fmt.Sprintf("# %d %v blk %d children %d",
			ip.Inum, ip.Mode, ip.Data, ip.NChildren)
	}
	return fmt.Sprintf("# %d %v blk %d size %d", ip.Inum, ip.Mode, ip.Data, ip.Size)
}

// sizeWord is the value stored in the size/children-count word.
func (ip *Inode) sizeWord() uint64 {
	if ip.Mode.IsDir() {
		return ip.NChildren
	}
	return ip.Size
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(uint32(ip.Mode))
	enc.PutInt32(0) // padding after mode_t
	enc.PutInt(uint64(ip.Inum))
	enc.PutInt(ip.Data)
	enc.PutInt(ip.sizeWord())
	return enc.Finish()
}

func Decode(data []byte) *Inode {
	dec := marshal.NewDec(data)
	ip := &Inode{}
	ip.Mode = Mode(dec.GetInt32())
	dec.GetInt32()
	ip.Inum = common.Inum(dec.GetInt())
	ip.Data = dec.GetInt()
	w := dec.GetInt()
	if ip.Mode.IsDir() {
		ip.NChildren = w
	} else {
		ip.Size = w
	}
	return ip
}

func slotAddr(i uint64) addr.Addr {
	return addr.MkSlotAddr(common.INODESTOREBLK, common.INODESZ, i)
}

// mkBuf returns ip encoded as a buf for slot i of the inode store.
func (ip *Inode) mkBuf(i uint64) *buf.Buf {
	return buf.MkBuf(slotAddr(i), common.INODESZ*8, ip.Encode())
}
