package inode

import (
	"fmt"

	"github.com/mit-pdos/go-assoofs/buf"
	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/super"
	"github.com/mit-pdos/go-assoofs/util"
)

// Store is the append-only inode table in the inode store block. Records
// sit in allocation order; slot i is valid iff i < sb.InodesCount.
//
// Callers get copies of records and write changes back with Update.
type Store struct {
	d disk.Disk
}

func MkStore(d disk.Disk) *Store {
	return &Store{d: d}
}

func (s *Store) readTable() (disk.Block, error) {
	blk, err := s.d.Read(common.INODESTOREBLK)
	if err != nil {
		return nil, fmt.Errorf("reading inode store: %w", err)
	}
	return blk, nil
}

func load(blk disk.Block, i uint64) *Inode {
	b := buf.MkBufLoad(slotAddr(i), common.INODESZ*8, blk)
	return Decode(b.Data)
}

// find scans the live slots for inum; the first match wins.
func find(sb *super.Super, blk disk.Block, inum common.Inum) (uint64, *Inode, bool) {
	for i := uint64(0); i < sb.InodesCount; i++ {
		ip := load(blk, i)
		if ip.Inum == inum {
			return i, ip, true
		}
	}
	return 0, nil, false
}

func (s *Store) Get(sb *super.Super, inum common.Inum) (*Inode, error) {
	blk, err := s.readTable()
	if err != nil {
		return nil, err
	}
	_, ip, ok := find(sb, blk, inum)
	if !ok {
		return nil, fmt.Errorf("inode %d: %w", inum, common.ErrNotFound)
	}
	return ip, nil
}

// Append writes ip into slot sb.InodesCount and then persists the bumped
// count. The record is written first so the count never covers a slot
// that was not written.
func (s *Store) Append(sb *super.Super, ip *Inode) error {
	n := sb.InodesCount
	if n >= common.MAXOBJECTS {
		return fmt.Errorf("appending inode %d: %w", ip.Inum, common.ErrObjectLimit)
	}
	if err := ip.mkBuf(n).WriteDirect(s.d); err != nil {
		return fmt.Errorf("appending inode %d: %w", ip.Inum, err)
	}
	if err := sb.SetInodesCount(s.d, n+1); err != nil {
		return fmt.Errorf("appending inode %d: %w", ip.Inum, err)
	}
	util.DPrintf(5, "inode.Append: slot %d %v\n", n, ip)
	return nil
}

// Update overwrites the record with ip's inode number in place.
func (s *Store) Update(sb *super.Super, ip *Inode) error {
	blk, err := s.readTable()
	if err != nil {
		return err
	}
	i, _, ok := find(sb, blk, ip.Inum)
	if !ok {
		return fmt.Errorf("updating inode %d: %w", ip.Inum, common.ErrNotFound)
	}
	b := ip.mkBuf(i)
	b.Install(blk)
	if err := s.d.Write(common.INODESTOREBLK, blk); err != nil {
		return fmt.Errorf("updating inode %d: %w", ip.Inum, err)
	}
	util.DPrintf(5, "inode.Update: slot %d %v\n", i, ip)
	return nil
}

// Scan calls f on each live record in slot order until f returns false.
func (s *Store) Scan(sb *super.Super, f func(ip *Inode) bool) error {
	blk, err := s.readTable()
	if err != nil {
		return err
	}
	for i := uint64(0); i < sb.InodesCount; i++ {
		if !f(load(blk, i)) {
			break
		}
	}
	return nil
}
