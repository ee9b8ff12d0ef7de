// Package fs is the assoofs engine: a mounted filesystem instance that
// composes the superblock, the inode store and the directory table, and
// keeps the three consistent across every operation.
//
// An FS allows one structural mutation at a time. Reads (lookups,
// listings, file reads) run concurrently with each other but never with a
// mutation, since a mutation passes through states where the inode store
// and a directory block disagree.
package fs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mit-pdos/go-assoofs/bcache"
	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/dir"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/inode"
	"github.com/mit-pdos/go-assoofs/super"
	"github.com/mit-pdos/go-assoofs/util"
)

// DupPolicy decides what creating a name that already exists in the
// parent directory does.
type DupPolicy int

const (
	// RejectDuplicates fails the create with common.ErrExists.
	RejectDuplicates DupPolicy = iota
	// AllowDuplicates adds a second entry; lookups find the oldest one.
	AllowDuplicates
)

type options struct {
	cache bool
	dups  DupPolicy
}

type Option func(*options)

// WithCache puts a write-through block cache in front of the device.
// It is on by default.
func WithCache(on bool) Option {
	return func(o *options) { o.cache = on }
}

func WithDuplicates(p DupPolicy) Option {
	return func(o *options) { o.dups = p }
}

type FS struct {
	mu     *sync.RWMutex
	id     uuid.UUID
	d      disk.Disk
	bc     *bcache.Bcache // nil without caching
	sb     *super.Super   // nil once unmounted
	inodes *inode.Store
	dirs   *dir.Table
	dups   DupPolicy
}

// Mount validates the superblock and the root directory on d and returns
// a mounted instance. On error nothing is mounted.
func Mount(d disk.Disk, opts ...Option) (*FS, error) {
	o := options{cache: true, dups: RejectDuplicates}
	for _, opt := range opts {
		opt(&o)
	}
	fs := &FS{
		mu:   new(sync.RWMutex),
		id:   uuid.New(),
		d:    d,
		dups: o.dups,
	}
	if o.cache {
		fs.bc = bcache.MkBcache(d)
		fs.d = fs.bc
	}
	fs.inodes = inode.MkStore(fs.d)
	fs.dirs = dir.MkTable(fs.d, fs.inodes)

	sb, err := fs.validate()
	if err != nil {
		return nil, fmt.Errorf("mounting: %w", err)
	}
	fs.sb = sb
	util.DPrintf(1, "fs %v: mounted, %v\n", fs.id, sb)
	return fs, nil
}

// validate runs the mount checks against the device.
func (fs *FS) validate() (*super.Super, error) {
	sb, err := super.Mount(fs.d)
	if err != nil {
		return nil, err
	}
	if _, err := fs.resolveRoot(sb); err != nil {
		return nil, err
	}
	return sb, nil
}

func (fs *FS) resolveRoot(sb *super.Super) (*inode.Inode, error) {
	root, err := fs.inodes.Get(sb, common.ROOTINUM)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("no root inode: %w", common.ErrCorrupt)
	}
	if err != nil {
		return nil, err
	}
	if !root.Mode.IsDir() {
		return nil, fmt.Errorf("root inode is %v: %w", root.Mode, common.ErrCorrupt)
	}
	if err := checkBounds(root); err != nil {
		return nil, err
	}
	return root, nil
}

func (fs *FS) mounted() error {
	if fs.sb == nil {
		return common.ErrNotMounted
	}
	return nil
}

func (fs *FS) ID() uuid.UUID {
	return fs.id
}

// Super returns a copy of the cached superblock.
func (fs *FS) Super() (*super.Super, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	return fs.sb.Copy(), nil
}

// Revalidate drops cached state and re-runs the mount checks, as needed
// after a mutation was interrupted. If the checks fail the instance is
// left unmounted.
func (fs *FS) Revalidate() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.mounted(); err != nil {
		return err
	}
	if fs.bc != nil {
		fs.bc.Invalidate()
	}
	sb, err := fs.validate()
	if err != nil {
		util.DPrintf(1, "fs %v: revalidate failed: %v\n", fs.id, err)
		fs.sb = nil
		return fmt.Errorf("revalidating: %w", err)
	}
	fs.sb = sb
	return nil
}

// Unmount writes the superblock back, flushes the device and discards the
// cached superblock. The device stays open; it belongs to the caller.
func (fs *FS) Unmount() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.mounted(); err != nil {
		return err
	}
	if err := fs.sb.Persist(fs.d); err != nil {
		return fmt.Errorf("unmounting: %w", err)
	}
	if err := fs.d.Barrier(); err != nil {
		return fmt.Errorf("unmounting: %w", err)
	}
	if fs.bc != nil {
		fs.bc.Invalidate()
	}
	fs.sb = nil
	util.DPrintf(1, "fs %v: unmounted\n", fs.id)
	return nil
}
