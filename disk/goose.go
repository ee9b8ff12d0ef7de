package disk

import (
	"fmt"

	gdisk "github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-assoofs/common"
)

var _ Disk = gooseDisk{}

// gooseDisk adapts a goose disk, which panics on bad addresses and has no
// error returns, to Disk.
type gooseDisk struct {
	d gdisk.Disk
}

// FromGoose wraps a goose disk (for example gdisk.NewMemDisk) as a Disk.
func FromGoose(d gdisk.Disk) Disk {
	if gdisk.BlockSize != BlockSize {
		panic("goose block size mismatch")
	}
	return gooseDisk{d: d}
}

func (g gooseDisk) inRange(a uint64) bool {
	return a < g.d.Size()
}

func (g gooseDisk) Read(a uint64) (Block, error) {
	if !g.inRange(a) {
		return nil, fmt.Errorf("reading block %d: %w", a, common.ErrOutOfRange)
	}
	return g.d.Read(a), nil
}

func (g gooseDisk) ReadTo(a uint64, b Block) error {
	checkBlock(b)
	blk, err := g.Read(a)
	if err != nil {
		return err
	}
	copy(b, blk)
	return nil
}

func (g gooseDisk) Write(a uint64, v Block) error {
	checkBlock(v)
	if !g.inRange(a) {
		return fmt.Errorf("writing block %d: %w", a, common.ErrOutOfRange)
	}
	g.d.Write(a, v)
	return nil
}

func (g gooseDisk) Size() (uint64, error) {
	return g.d.Size(), nil
}

func (g gooseDisk) Barrier() error {
	g.d.Barrier()
	return nil
}

func (g gooseDisk) Close() error {
	g.d.Close()
	return nil
}
