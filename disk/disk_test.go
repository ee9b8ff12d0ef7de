package disk

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gdisk "github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-assoofs/common"
)

func block(b byte) Block {
	blk := make(Block, BlockSize)
	for i := range blk {
		blk[i] = b
	}
	return blk
}

func testDisk(t *testing.T, d Disk) {
	assert := assert.New(t)
	sz, err := d.Size()
	require.NoError(t, err)
	assert.Equal(uint64(8), sz)

	assert.NoError(d.Write(3, block(0xAB)))
	blk, err := d.Read(3)
	assert.NoError(err)
	assert.Equal(block(0xAB), blk)

	blk[0] = 0
	blk2, err := d.Read(3)
	assert.NoError(err)
	assert.Equal(byte(0xAB), blk2[0], "read must return a copy")

	buf := make(Block, BlockSize)
	assert.NoError(d.ReadTo(3, buf))
	assert.Equal(block(0xAB), buf)

	zero, err := d.Read(0)
	assert.NoError(err)
	assert.Equal(block(0), zero, "unwritten blocks read as zero")

	_, err = d.Read(8)
	assert.True(errors.Is(err, common.ErrOutOfRange))
	err = d.Write(8, block(1))
	assert.True(errors.Is(err, common.ErrOutOfRange))

	assert.NoError(d.Barrier())
}

func TestMemDisk(t *testing.T) {
	testDisk(t, NewMemDisk(8))
}

func TestGooseDisk(t *testing.T) {
	testDisk(t, FromGoose(gdisk.NewMemDisk(8)))
}

func TestFileDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := NewFileDisk(path, 8)
	require.NoError(t, err)
	testDisk(t, d)
	require.NoError(t, d.Close())

	d2, err := OpenFileDisk(path)
	require.NoError(t, err)
	defer d2.Close()
	sz, _ := d2.Size()
	assert.Equal(t, uint64(8), sz)
	blk, err := d2.Read(3)
	assert.NoError(t, err)
	assert.Equal(t, block(0xAB), blk, "writes survive reopen")
}

func TestWriteWrongSizePanics(t *testing.T) {
	d := NewMemDisk(2)
	assert.Panics(t, func() { d.Write(0, make(Block, 10)) })
}
