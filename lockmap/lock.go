// Package lockmap is a sharded map of per-block locks.
//
// The API is as if LockMap held a lock for every block number;
// LockMap.Acquire(bn) acquires the lock for bn and LockMap.Release(bn)
// releases it. Only locks that are held or waited on take memory: shard
// i keeps the state of every bn with bn % NSHARD == i, and a lock's state
// is dropped once it is released with no waiters.
//
// The block cache uses it so that two readers missing on the same block
// load it once, and so a write-through and a fill of one block never
// interleave.
package lockmap

import (
	"sync"

	"github.com/mit-pdos/go-assoofs/common"
)

type lockState struct {
	held    bool
	cond    *sync.Cond
	waiters uint64
}

type lockShard struct {
	mu    *sync.Mutex
	state map[common.Bnum]*lockState
}

func mkLockShard() *lockShard {
	return &lockShard{
		mu:    new(sync.Mutex),
		state: make(map[common.Bnum]*lockState),
	}
}

func (shard *lockShard) acquire(bn common.Bnum) {
	shard.mu.Lock()
	defer shard.mu.Unlock()
	state, ok := shard.state[bn]
	if !ok {
		state = &lockState{cond: sync.NewCond(shard.mu)}
		shard.state[bn] = state
	}
	for state.held {
		state.waiters += 1
		state.cond.Wait()
		state.waiters -= 1
	}
	state.held = true
}

func (shard *lockShard) release(bn common.Bnum) {
	shard.mu.Lock()
	defer shard.mu.Unlock()
	state, ok := shard.state[bn]
	if !ok || !state.held {
		panic("lockmap: release of unheld lock")
	}
	state.held = false
	if state.waiters > 0 {
		state.cond.Signal()
	} else {
		delete(shard.state, bn)
	}
}

// NSHARD is prime so that strided block numbers spread across shards.
const NSHARD uint64 = 67

type LockMap struct {
	shards []*lockShard
}

func MkLockMap() *LockMap {
	shards := make([]*lockShard, 0, NSHARD)
	for i := uint64(0); i < NSHARD; i++ {
		shards = append(shards, mkLockShard())
	}
	return &LockMap{shards: shards}
}

func (lmap *LockMap) Acquire(bn common.Bnum) {
	lmap.shards[bn%NSHARD].acquire(bn)
}

func (lmap *LockMap) Release(bn common.Bnum) {
	lmap.shards[bn%NSHARD].release(bn)
}

// held reports the number of lock states a shard is tracking; for tests.
func (lmap *LockMap) held() int {
	n := 0
	for _, shard := range lmap.shards {
		shard.mu.Lock()
		n += len(shard.state)
		shard.mu.Unlock()
	}
	return n
}
