package internal

import "fmt"

// cacheLine is the assumed size of a cache line in bytes.
const cacheLine = 64

// A Slot is one worker's reduction scratch storage: a partial value, its
// location, and whether any value has been combined into it. Slots are
// padded so that neighbouring workers do not write to the same cache line.
type Slot[T any] struct {
	Value T
	Loc   int
	Set   bool
	_     [cacheLine - 16]byte
}

// Slots is a fixed-capacity array of per-worker slots. It is allocated once
// per dispatch and indexed by worker slot number.
type Slots[T any] []Slot[T]

// MakeSlots allocates n slots, each set to identity with location loc.
// It panics if n exceeds capacity, the upper bound on worker counts fixed
// at configuration time.
func MakeSlots[T any](n, capacity int, identity T, loc int) Slots[T] {
	if n < 0 || (capacity > 0 && n > capacity) {
		panic(fmt.Sprintf("invalid number of scratch slots: %v (capacity %v)", n, capacity))
	}
	s := make(Slots[T], n)
	s.Fill(0, n, identity, loc)
	return s
}

// Fill resets the slots from low to high to identity and loc.
func (s Slots[T]) Fill(low, high int, identity T, loc int) {
	for i := low; i < high; i++ {
		s[i].Value = identity
		s[i].Loc = loc
		s[i].Set = false
	}
}

// Tree merges the slots from low to high pairwise, in a balanced tree
// order, and returns the merged slot in s[low]. The range must not be
// empty. Tree overwrites the merged slots.
func (s Slots[T]) Tree(low, high int, merge func(acc *Slot[T], in Slot[T])) Slot[T] {
	if high <= low {
		panic(fmt.Sprintf("invalid range: %v:%v", low, high))
	}
	n := high - low
	for stride := 1; stride < n; stride *= 2 {
		for i := low; i+stride < high; i += 2 * stride {
			merge(&s[i], s[i+stride])
		}
	}
	return s[low]
}
