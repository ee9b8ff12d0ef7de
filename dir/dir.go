// Package dir is the directory table: the array of (name, inode number)
// entries stored in a directory's content block, in creation order.
//
// A directory's entry count lives in its inode (NChildren), not in the
// block; slots past it are garbage.
package dir

import (
	"fmt"

	"github.com/mit-pdos/go-assoofs/buf"
	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/inode"
	"github.com/mit-pdos/go-assoofs/super"
	"github.com/mit-pdos/go-assoofs/util"
)

// Cookie is a resumable position in a directory listing: the byte offset
// of the next slot to read. A listing started at CookieStart visits every
// entry; restarting at the cookie returned with an entry continues after
// that entry.
type Cookie uint64

const CookieStart Cookie = 0

func (c Cookie) slot() (uint64, bool) {
	if uint64(c)%common.DIRENTSZ != 0 {
		return 0, false
	}
	return uint64(c) / common.DIRENTSZ, true
}

func cookieAfter(slot uint64) Cookie {
	return Cookie((slot + 1) * common.DIRENTSZ)
}

type Table struct {
	d      disk.Disk
	inodes *inode.Store
}

func MkTable(d disk.Disk, inodes *inode.Store) *Table {
	return &Table{d: d, inodes: inodes}
}

func checkDir(dip *inode.Inode) error {
	if !dip.Mode.IsDir() {
		return fmt.Errorf("inode %d: %w", dip.Inum, common.ErrNotDir)
	}
	if dip.NChildren > common.DIRENTS {
		return fmt.Errorf("directory %d claims %d entries: %w",
			dip.Inum, dip.NChildren, common.ErrCorrupt)
	}
	return nil
}

// ReadDir calls f on the entries of dip from cookie on, in creation order,
// until f returns false or the entries run out. The directory block is
// read once per call.
func (t *Table) ReadDir(dip *inode.Inode, cookie Cookie, f func(de DirEnt, next Cookie) bool) error {
	if err := checkDir(dip); err != nil {
		return err
	}
	start, ok := cookie.slot()
	if !ok {
		return fmt.Errorf("cookie %d in directory %d: %w", cookie, dip.Inum, common.ErrBadCookie)
	}
	if start >= dip.NChildren {
		return nil
	}
	blk, err := t.d.Read(dip.Data)
	if err != nil {
		return fmt.Errorf("reading directory %d: %w", dip.Inum, err)
	}
	for i := start; i < dip.NChildren; i++ {
		b := buf.MkBufLoad(slotAddr(dip.Data, i), common.DIRENTSZ*8, blk)
		if !f(Decode(b.Data), cookieAfter(i)) {
			break
		}
	}
	return nil
}

func (t *Table) List(dip *inode.Inode) ([]DirEnt, error) {
	ents := make([]DirEnt, 0, dip.NChildren)
	err := t.ReadDir(dip, CookieStart, func(de DirEnt, _ Cookie) bool {
		ents = append(ents, de)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ents, nil
}

// Find returns the first entry named name; names compare byte for byte.
func (t *Table) Find(dip *inode.Inode, name string) (DirEnt, error) {
	var found DirEnt
	ok := false
	err := t.ReadDir(dip, CookieStart, func(de DirEnt, _ Cookie) bool {
		if de.Name == name {
			found = de
			ok = true
			return false
		}
		return true
	})
	if err != nil {
		return DirEnt{}, err
	}
	if !ok {
		return DirEnt{}, fmt.Errorf("`%s` in directory %d: %w", name, dip.Inum, common.ErrNotFound)
	}
	return found, nil
}

// Append writes de into the next free slot of dip's block and then
// persists dip with NChildren incremented. It returns the updated copy of
// dip; dip itself is not modified.
func (t *Table) Append(sb *super.Super, dip *inode.Inode, de DirEnt) (*inode.Inode, error) {
	if err := checkDir(dip); err != nil {
		return nil, err
	}
	if err := ValidName(de.Name); err != nil {
		return nil, err
	}
	n := dip.NChildren
	if (n+1)*common.DIRENTSZ > common.BLOCKSIZE {
		return nil, fmt.Errorf("adding `%s` to directory %d: %w", de.Name, dip.Inum, common.ErrDirFull)
	}
	b := buf.MkBuf(slotAddr(dip.Data, n), common.DIRENTSZ*8, de.Encode())
	if err := b.WriteDirect(t.d); err != nil {
		return nil, fmt.Errorf("adding `%s` to directory %d: %w", de.Name, dip.Inum, err)
	}
	dip2 := dip.Copy()
	dip2.NChildren = n + 1
	if err := t.inodes.Update(sb, dip2); err != nil {
		return nil, fmt.Errorf("adding `%s` to directory %d: %w", de.Name, dip.Inum, err)
	}
	util.DPrintf(5, "dir.Append: %d/%s -> %d slot %d\n", dip.Inum, de.Name, de.Inum, n)
	return dip2, nil
}
