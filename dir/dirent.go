package dir

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-assoofs/addr"
	"github.com/mit-pdos/go-assoofs/common"
)

// MaxNameLen leaves room for the terminating NUL.
const MaxNameLen = common.NAMELEN - 1

type DirEnt struct {
	Name string
	Inum common.Inum
}

// ValidName rejects names that cannot be stored or that a path lookup
// could never reach.
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("name `%s`: %w", name, common.ErrInvalidName)
	}
	if uint64(len(name)) > MaxNameLen {
		return fmt.Errorf("name of %d bytes, max %d: %w",
			len(name), MaxNameLen, common.ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("name %q: %w", name, common.ErrInvalidName)
	}
	return nil
}

func (de *DirEnt) Encode() []byte {
	data := make([]byte, common.DIRENTSZ)
	copy(data[:MaxNameLen], de.Name)
	enc := marshal.NewEnc(8)
	enc.PutInt(uint64(de.Inum))
	copy(data[common.NAMELEN+1:], enc.Finish())
	return data
}

func Decode(data []byte) DirEnt {
	name := data[:common.NAMELEN]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	dec := marshal.NewDec(data[common.NAMELEN+1 : common.DIRENTSZ])
	return DirEnt{
		Name: string(name),
		Inum: common.Inum(dec.GetInt()),
	}
}

func slotAddr(blk common.Bnum, i uint64) addr.Addr {
	return addr.MkSlotAddr(blk, common.DIRENTSZ, i)
}
