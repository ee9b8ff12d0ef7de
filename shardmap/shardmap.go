// Package shardmap is a concurrent map from block numbers to block
// contents, split into independently locked shards.
package shardmap

import (
	"sync"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/util"
)

type mapShard struct {
	mu    *sync.RWMutex
	state map[common.Bnum]disk.Block
}

type BlockMap struct {
	shards []*mapShard
}

const NSHARD uint64 = 67

func mkMapShard() *mapShard {
	return &mapShard{
		mu:    new(sync.RWMutex),
		state: make(map[common.Bnum]disk.Block),
	}
}

func MkBlockMap() *BlockMap {
	shards := make([]*mapShard, 0, NSHARD)
	for i := uint64(0); i < NSHARD; i++ {
		shards = append(shards, mkMapShard())
	}
	return &BlockMap{shards: shards}
}

func (bmap *BlockMap) getShard(bn common.Bnum) *mapShard {
	return bmap.shards[bn%NSHARD]
}

// Read returns a private copy of the block stored for bn.
func (bmap *BlockMap) Read(bn common.Bnum) (disk.Block, bool) {
	shard := bmap.getShard(bn)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	blk, ok := shard.state[bn]
	if !ok {
		return nil, false
	}
	return util.CloneByteSlice(blk), true
}

// Write stores a copy of blk for bn.
func (bmap *BlockMap) Write(bn common.Bnum, blk disk.Block) {
	blk = util.CloneByteSlice(blk)
	shard := bmap.getShard(bn)
	shard.mu.Lock()
	shard.state[bn] = blk
	shard.mu.Unlock()
}

func (bmap *BlockMap) Del(bn common.Bnum) {
	shard := bmap.getShard(bn)
	shard.mu.Lock()
	delete(shard.state, bn)
	shard.mu.Unlock()
}

// Clear drops every block.
func (bmap *BlockMap) Clear() {
	for _, shard := range bmap.shards {
		shard.mu.Lock()
		shard.state = make(map[common.Bnum]disk.Block)
		shard.mu.Unlock()
	}
}

func (bmap *BlockMap) Len() uint64 {
	var n uint64
	for _, shard := range bmap.shards {
		shard.mu.RLock()
		n += uint64(len(shard.state))
		shard.mu.RUnlock()
	}
	return n
}
