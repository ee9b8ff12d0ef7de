package bcache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
)

// countingDisk counts reads and can be told to fail writes.
type countingDisk struct {
	disk.Disk
	mu        sync.Mutex
	reads     int
	failWrite bool
}

func (d *countingDisk) Read(a uint64) (disk.Block, error) {
	d.mu.Lock()
	d.reads++
	d.mu.Unlock()
	return d.Disk.Read(a)
}

func (d *countingDisk) Write(a uint64, v disk.Block) error {
	if d.failWrite {
		return errors.New("injected write failure")
	}
	return d.Disk.Write(a, v)
}

func blk(b byte) disk.Block {
	v := make(disk.Block, disk.BlockSize)
	v[0] = b
	return v
}

func TestReadThroughOnce(t *testing.T) {
	assert := assert.New(t)
	cd := &countingDisk{Disk: disk.NewMemDisk(4)}
	bc := MkBcache(cd)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := bc.Read(1)
			assert.NoError(err)
			assert.Equal(byte(0), b[0])
		}()
	}
	wg.Wait()
	assert.Equal(1, cd.reads, "concurrent misses load the block once")
	assert.Equal(uint64(1), bc.Cached())
}

func TestWriteThrough(t *testing.T) {
	assert := assert.New(t)
	md := disk.NewMemDisk(4)
	bc := MkBcache(md)

	assert.NoError(bc.Write(2, blk(5)))
	onDisk, _ := md.Read(2)
	assert.Equal(byte(5), onDisk[0], "write reaches the device")

	b, err := bc.Read(2)
	assert.NoError(err)
	assert.Equal(byte(5), b[0])
	b[0] = 6
	b, _ = bc.Read(2)
	assert.Equal(byte(5), b[0], "cached block is not aliased")
}

func TestFailedWriteNotCached(t *testing.T) {
	assert := assert.New(t)
	cd := &countingDisk{Disk: disk.NewMemDisk(4)}
	bc := MkBcache(cd)
	assert.NoError(bc.Write(1, blk(1)))

	cd.failWrite = true
	assert.Error(bc.Write(1, blk(2)))
	cd.failWrite = false

	b, err := bc.Read(1)
	assert.NoError(err)
	assert.Equal(byte(1), b[0], "cache holds what the device holds")
}

func TestOutOfRange(t *testing.T) {
	bc := MkBcache(disk.NewMemDisk(2))
	_, err := bc.Read(2)
	assert.True(t, errors.Is(err, common.ErrOutOfRange))
	assert.Equal(t, uint64(0), bc.Cached())
}

func TestInvalidate(t *testing.T) {
	cd := &countingDisk{Disk: disk.NewMemDisk(2)}
	bc := MkBcache(cd)
	bc.Read(0)
	bc.Invalidate()
	bc.Read(0)
	assert.Equal(t, 2, cd.reads)
}
