package alloc

import (
	"github.com/mit-pdos/go-assoofs/util"
)

// Alloc hands out numbers from a one-word bitmap in which a set bit means
// the number is free. Only numbers in [start, end) are ever allocated.
//
// Alloc is a value; callers copy it, allocate on the copy, and keep the
// copy only once the new bitmap is durable.
type Alloc struct {
	bits  uint64
	start uint64
	end   uint64
}

func MkAlloc(bits uint64, start uint64, end uint64) Alloc {
	if end > 64 || start > end {
		panic("MkAlloc: bad range")
	}
	return Alloc{bits: bits, start: start, end: end}
}

func (a Alloc) Bits() uint64 {
	return a.bits
}

func (a Alloc) IsFree(n uint64) bool {
	return n < 64 && a.bits&(1<<n) != 0
}

// AllocNum returns the lowest free number and marks it used.
func (a *Alloc) AllocNum() (uint64, bool) {
	for n := a.start; n < a.end; n++ {
		if a.IsFree(n) {
			a.MarkUsed(n)
			util.DPrintf(10, "AllocNum: %d\n", n)
			return n, true
		}
	}
	return 0, false
}

func (a *Alloc) MarkUsed(n uint64) {
	if n >= 64 {
		panic("MarkUsed")
	}
	a.bits = a.bits & ^(1 << n)
}

func popCnt(b uint64) uint64 {
	var count uint64
	var x = b
	for x != 0 {
		count += x & 1
		x = x >> 1
	}
	return count
}

// NumFree counts the free numbers the allocator can hand out.
func (a Alloc) NumFree() uint64 {
	var mask uint64
	for n := a.start; n < a.end; n++ {
		mask |= 1 << n
	}
	return popCnt(a.bits & mask)
}
