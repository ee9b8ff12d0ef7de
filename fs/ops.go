package fs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/dir"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/inode"
	"github.com/mit-pdos/go-assoofs/util"
)

// Child is one resolved directory entry.
type Child struct {
	Name  string
	Inode *inode.Inode
}

func (fs *FS) Root() (*inode.Inode, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	return fs.resolveRoot(fs.sb)
}

func (fs *FS) GetInode(inum common.Inum) (*inode.Inode, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	return fs.inodes.Get(fs.sb, inum)
}

// checkBounds rejects a record whose content block or size reaches
// outside the object's own block.
func checkBounds(ip *inode.Inode) error {
	if ip.Data <= common.INODESTOREBLK || ip.Data >= common.MAXOBJECTS {
		return corrupt("inode %d uses block %d", ip.Inum, ip.Data)
	}
	if ip.Mode.IsRegular() && ip.Size > common.BLOCKSIZE {
		return corrupt("inode %d has size %d", ip.Inum, ip.Size)
	}
	return nil
}

func (fs *FS) getDir(inum common.Inum) (*inode.Inode, error) {
	dip, err := fs.inodes.Get(fs.sb, inum)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(dip); err != nil {
		return nil, err
	}
	if !dip.Mode.IsDir() {
		return nil, fmt.Errorf("inode %d: %w", inum, common.ErrNotDir)
	}
	return dip, nil
}

// getRef resolves the inode a directory entry points at; a missing inode
// means the entry dangles.
func (fs *FS) getRef(de dir.DirEnt) (*inode.Inode, error) {
	ip, err := fs.inodes.Get(fs.sb, de.Inum)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("entry `%s` names missing inode %d: %w",
			de.Name, de.Inum, common.ErrCorrupt)
	}
	return ip, err
}

func (fs *FS) lookup(parent common.Inum, name string) (*inode.Inode, error) {
	dip, err := fs.getDir(parent)
	if err != nil {
		return nil, err
	}
	de, err := fs.dirs.Find(dip, name)
	if err != nil {
		return nil, err
	}
	return fs.getRef(de)
}

// Lookup finds name in directory parent.
func (fs *FS) Lookup(parent common.Inum, name string) (*inode.Inode, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	return fs.lookup(parent, name)
}

// LookupPath resolves a slash-separated path from the root, one component
// at a time. Empty components are skipped, so "/", "" and "//a/" work.
func (fs *FS) LookupPath(path string) (*inode.Inode, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	ip, err := fs.resolveRoot(fs.sb)
	if err != nil {
		return nil, err
	}
	for _, name := range strings.Split(path, "/") {
		if name == "" {
			continue
		}
		ip, err = fs.lookup(ip.Inum, name)
		if err != nil {
			return nil, fmt.Errorf("looking up path `%s`: %w", path, err)
		}
	}
	return ip, nil
}

// CreateObject makes a new file or directory (by the kind bits of mode;
// anything that is not a directory becomes a regular file) named name in
// directory parent.
//
// The block is allocated before the inode is appended, and the inode is
// appended before the parent references it. An interrupted create can
// leak a block or an inode but never leaves an entry naming a missing
// inode. All checks run before the first write.
func (fs *FS) CreateObject(parent common.Inum, name string, mode inode.Mode) (*inode.Inode, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	ip, err := fs.create(parent, name, mode)
	if err != nil {
		return nil, fmt.Errorf("creating `%s` in %d: %w", name, parent, err)
	}
	util.DPrintf(1, "fs %v: create %d/%s -> %v\n", fs.id, parent, name, ip)
	return ip, nil
}

func (fs *FS) create(parent common.Inum, name string, mode inode.Mode) (*inode.Inode, error) {
	dip, err := fs.getDir(parent)
	if err != nil {
		return nil, err
	}
	if err := dir.ValidName(name); err != nil {
		return nil, err
	}
	if fs.dups == RejectDuplicates {
		_, err := fs.dirs.Find(dip, name)
		if err == nil {
			return nil, common.ErrExists
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}
	if fs.sb.InodesCount >= common.MAXOBJECTS {
		return nil, common.ErrObjectLimit
	}
	if dip.NChildren >= common.DIRENTS {
		return nil, common.ErrDirFull
	}

	inum := common.Inum(fs.sb.InodesCount + 1)
	var ip *inode.Inode
	if mode.IsDir() {
		ip = inode.MkDir(inum, mode)
	} else {
		ip = inode.MkFile(inum, mode)
	}

	bn, err := fs.sb.AllocBlock(fs.d)
	if err != nil {
		return nil, err
	}
	ip.Data = bn
	// the block may hold stale bytes from before the format
	if err := fs.d.Write(bn, make(disk.Block, disk.BlockSize)); err != nil {
		return nil, err
	}
	if err := fs.inodes.Append(fs.sb, ip); err != nil {
		return nil, err
	}
	if _, err := fs.dirs.Append(fs.sb, dip, dir.DirEnt{Name: name, Inum: inum}); err != nil {
		return nil, err
	}
	return ip.Copy(), nil
}

// Create makes an empty regular file.
func (fs *FS) Create(parent common.Inum, name string, perm inode.Mode) (*inode.Inode, error) {
	return fs.CreateObject(parent, name, inode.S_IFREG|perm.Perm())
}

// Mkdir makes an empty directory.
func (fs *FS) Mkdir(parent common.Inum, name string, perm inode.Mode) (*inode.Inode, error) {
	return fs.CreateObject(parent, name, inode.S_IFDIR|perm.Perm())
}

// ReadDir calls f on the children of directory inum from cookie on, with
// the cookie that resumes after each child. The children are gathered
// under the read lock and f runs after it is dropped, so f may call back
// into fs.
func (fs *FS) ReadDir(inum common.Inum, cookie dir.Cookie, f func(c Child, next dir.Cookie) bool) error {
	type item struct {
		c    Child
		next dir.Cookie
	}
	var items []item
	err := func() error {
		fs.mu.RLock()
		defer fs.mu.RUnlock()
		if err := fs.mounted(); err != nil {
			return err
		}
		dip, err := fs.getDir(inum)
		if err != nil {
			return err
		}
		var inner error
		err = fs.dirs.ReadDir(dip, cookie, func(de dir.DirEnt, next dir.Cookie) bool {
			ip, err := fs.getRef(de)
			if err != nil {
				inner = err
				return false
			}
			items = append(items, item{Child{Name: de.Name, Inode: ip}, next})
			return true
		})
		if err != nil {
			return err
		}
		return inner
	}()
	if err != nil {
		return fmt.Errorf("listing %d: %w", inum, err)
	}
	for _, it := range items {
		if !f(it.c, it.next) {
			break
		}
	}
	return nil
}

// ListChildren returns every child of directory inum in creation order.
func (fs *FS) ListChildren(inum common.Inum) ([]Child, error) {
	var children []Child
	err := fs.ReadDir(inum, dir.CookieStart, func(c Child, _ dir.Cookie) bool {
		children = append(children, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}
