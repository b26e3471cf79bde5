package filesystem

import "sync/atomic"

// InodeAllocator issues node identifiers shared by files and directories.
// Every id returned by Allocate is strictly greater than all ids returned
// since the last Reset. Ids wasted by failed creations are never handed out again.
type InodeAllocator struct {
	seed uint64
	last atomic.Uint64
}

// NewInodeAllocator returns an allocator whose first id is seed+1
func NewInodeAllocator(seed uint64) *InodeAllocator {
	a := &InodeAllocator{seed: seed}
	a.last.Store(seed)
	return a
}

// Allocate returns the next unused id (thread-safe)
func (a *InodeAllocator) Allocate() uint64 {
	return a.last.Add(1)
}

// Reset restores the counter to its seed
func (a *InodeAllocator) Reset() {
	a.last.Store(a.seed)
}

func (a *InodeAllocator) Seed() uint64 {
	return a.seed
}

// Last returns the most recently allocated id, or the seed if none
func (a *InodeAllocator) Last() uint64 {
	return a.last.Load()
}
