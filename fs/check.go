package fs

import (
	"fmt"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/dir"
	"github.com/mit-pdos/go-assoofs/inode"
)

type Stat struct {
	Blocks     uint64 // device size
	FreeBlocks uint64
	Objects    uint64
	MaxObjects uint64
}

func (fs *FS) Statfs() (Stat, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return Stat{}, err
	}
	sz, err := fs.d.Size()
	if err != nil {
		return Stat{}, err
	}
	return Stat{
		Blocks:     sz,
		FreeBlocks: fs.sb.NumFree(),
		Objects:    fs.sb.InodesCount,
		MaxObjects: common.MAXOBJECTS,
	}, nil
}

// Inodes returns every inode record in store order.
func (fs *FS) Inodes() ([]*inode.Inode, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	var ips []*inode.Inode
	err := fs.inodes.Scan(fs.sb, func(ip *inode.Inode) bool {
		ips = append(ips, ip)
		return true
	})
	return ips, err
}

// Report lists what Check found that an interrupted create can leave
// behind. Neither is corruption.
type Report struct {
	// Orphans are inodes no directory entry names.
	Orphans []common.Inum
	// Leaked are blocks marked in use that no inode owns.
	Leaked []common.Bnum
}

func corrupt(format string, a ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), common.ErrCorrupt)
}

// Check verifies the cross-structure invariants: inode numbers are
// exactly 1..inodes_count, each object owns a distinct allocated block,
// every directory's entries fit its block and name live inodes, and each
// non-root inode is named at most once.
func (fs *FS) Check() (*Report, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	sb := fs.sb
	byInum := make(map[common.Inum]*inode.Inode)
	owner := make(map[common.Bnum]common.Inum)
	var order []*inode.Inode
	var err error
	scanErr := fs.inodes.Scan(sb, func(ip *inode.Inode) bool {
		if ip.Inum == common.NULLINUM || uint64(ip.Inum) > sb.InodesCount {
			err = corrupt("inode number %d outside 1..%d", ip.Inum, sb.InodesCount)
			return false
		}
		if _, ok := byInum[ip.Inum]; ok {
			err = corrupt("inode number %d appears twice", ip.Inum)
			return false
		}
		if !ip.Mode.IsDir() && !ip.Mode.IsRegular() {
			err = corrupt("inode %d has mode %v", ip.Inum, ip.Mode)
			return false
		}
		if o, ok := owner[ip.Data]; ok {
			err = corrupt("block %d owned by inodes %d and %d", ip.Data, o, ip.Inum)
			return false
		}
		if err = checkBounds(ip); err != nil {
			return false
		}
		if !sb.IsAllocated(ip.Data) {
			err = corrupt("inode %d uses unallocated block %d", ip.Inum, ip.Data)
			return false
		}
		byInum[ip.Inum] = ip
		owner[ip.Data] = ip.Inum
		order = append(order, ip)
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if err != nil {
		return nil, err
	}
	if _, err := fs.resolveRoot(sb); err != nil {
		return nil, err
	}

	named := make(map[common.Inum]bool)
	for _, ip := range order {
		if !ip.Mode.IsDir() {
			continue
		}
		ents, err := fs.dirs.List(ip)
		if err != nil {
			return nil, err
		}
		names := make(map[string]bool)
		for _, de := range ents {
			if _, ok := byInum[de.Inum]; !ok {
				return nil, corrupt("entry `%s` in %d names missing inode %d", de.Name, ip.Inum, de.Inum)
			}
			if de.Inum == common.ROOTINUM || named[de.Inum] {
				return nil, corrupt("inode %d is named twice", de.Inum)
			}
			if names[de.Name] && fs.dups == RejectDuplicates {
				return nil, corrupt("directory %d has two entries `%s`", ip.Inum, de.Name)
			}
			if dir.ValidName(de.Name) != nil {
				return nil, corrupt("directory %d has entry %q", ip.Inum, de.Name)
			}
			named[de.Inum] = true
			names[de.Name] = true
		}
	}

	r := &Report{}
	sz, err := fs.d.Size()
	if err != nil {
		return nil, err
	}
	for _, ip := range order {
		if ip.Inum != common.ROOTINUM && !named[ip.Inum] {
			r.Orphans = append(r.Orphans, ip.Inum)
		}
	}
	for bn := common.FIRSTFREEBLK; bn < common.MAXOBJECTS; bn++ {
		if _, ok := owner[bn]; !ok && bn < sz && sb.IsAllocated(bn) {
			r.Leaked = append(r.Leaked, bn)
		}
	}
	return r, nil
}
