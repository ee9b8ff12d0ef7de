// Package mkfs lays out an empty assoofs image: superblock, inode store,
// root directory, and one welcome file.
package mkfs

import (
	"fmt"

	"github.com/mit-pdos/go-assoofs/addr"
	"github.com/mit-pdos/go-assoofs/buf"
	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/dir"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/inode"
	"github.com/mit-pdos/go-assoofs/super"
	"github.com/mit-pdos/go-assoofs/util"
)

const (
	WelcomeName = "README.txt"
	WelcomeBody = "Hello world, greetings from an assoofs filesystem.\n"

	WelcomeInum common.Inum = common.ROOTINUM + 1
	WelcomeBlk  common.Bnum = common.ROOTDIRBLK + 1

	// MinBlocks is the smallest device Format accepts.
	MinBlocks uint64 = WelcomeBlk + 1
)

// InitialFree is the free-block bitmap of a fresh image on a device of
// nblocks blocks: blocks 0-3 are in use and blocks past the device are
// never free.
func InitialFree(nblocks uint64) uint64 {
	free := ^uint64(0) &^ 0b1111
	if nblocks < 64 {
		free &= (1 << nblocks) - 1
	}
	return free
}

func Format(d disk.Disk) error {
	return FormatWith(d, WelcomeName, []byte(WelcomeBody))
}

// FormatWith formats d with a welcome file of the given name and body.
// The superblock is written last, so an interrupted format does not mount.
func FormatWith(d disk.Disk, name string, body []byte) error {
	nblocks, err := d.Size()
	if err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	if nblocks < MinBlocks {
		return fmt.Errorf("formatting %d blocks, need %d: %w",
			nblocks, MinBlocks, common.ErrOutOfRange)
	}
	if err := dir.ValidName(name); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	if uint64(len(body)) > disk.BlockSize {
		return fmt.Errorf("formatting: welcome body of %d bytes: %w",
			len(body), common.ErrFileTooBig)
	}

	root := inode.MkDir(common.ROOTINUM, 0755)
	root.Data = common.ROOTDIRBLK
	root.NChildren = 1

	welcome := inode.MkFile(WelcomeInum, 0644)
	welcome.Data = WelcomeBlk
	welcome.Size = uint64(len(body))

	itable := make(disk.Block, disk.BlockSize)
	for i, ip := range []*inode.Inode{root, welcome} {
		a := addr.MkSlotAddr(common.INODESTOREBLK, common.INODESZ, uint64(i))
		buf.MkBuf(a, common.INODESZ*8, ip.Encode()).Install(itable)
	}

	rootblk := make(disk.Block, disk.BlockSize)
	de := dir.DirEnt{Name: name, Inum: WelcomeInum}
	a := addr.MkSlotAddr(common.ROOTDIRBLK, common.DIRENTSZ, 0)
	buf.MkBuf(a, common.DIRENTSZ*8, de.Encode()).Install(rootblk)

	bodyblk := make(disk.Block, disk.BlockSize)
	copy(bodyblk, body)

	sb := super.MkSuper(2, InitialFree(nblocks))

	writes := []struct {
		bn  common.Bnum
		blk disk.Block
	}{
		{common.INODESTOREBLK, itable},
		{common.ROOTDIRBLK, rootblk},
		{WelcomeBlk, bodyblk},
		{common.SUPERBLK, sb.Encode()},
	}
	for _, w := range writes {
		if err := d.Write(w.bn, w.blk); err != nil {
			return fmt.Errorf("formatting: %w", err)
		}
	}
	if err := d.Barrier(); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	util.DPrintf(1, "mkfs: %d blocks, %v\n", nblocks, sb)
	return nil
}
