package fuse

import (
	"errors"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// ErrNoHandles is returned when every file handle value is in use
var ErrNoHandles = errors.New("no free file handles")

// Handle records what an open file or directory handle refers to
type Handle struct {
	NodeID uint64 // Engine id
	Flags  uint32 // Open flags (O_APPEND, O_RDONLY, ...)
	Dir    bool
}

// HandleTable maps FUSE file handles to open nodes.
// Handle values start at 1 and wrap at max, skipping values still in use.
type HandleTable struct {
	handles *xsync.Map[uint64, Handle]
	last    atomic.Uint64
	max     uint64
}

func NewHandleTable(maxFH int) *HandleTable {
	if maxFH < 1 {
		maxFH = 1
	}
	return &HandleTable{
		handles: xsync.NewMap[uint64, Handle](),
		max:     uint64(maxFH),
	}
}

// Open associates a new handle value with h
func (t *HandleTable) Open(h Handle) (uint64, error) {
	for range t.max {
		fh := t.next()
		if _, loaded := t.handles.LoadOrStore(fh, h); !loaded {
			return fh, nil
		}
	}
	return 0, ErrNoHandles
}

func (t *HandleTable) next() uint64 {
	for {
		old := t.last.Load()
		fh := old + 1
		if fh > t.max {
			fh = 1
		}
		if t.last.CompareAndSwap(old, fh) {
			return fh
		}
	}
}

func (t *HandleTable) Lookup(fh uint64) (Handle, bool) {
	return t.handles.Load(fh)
}

// Release frees fh; releasing an unknown handle is a no-op
func (t *HandleTable) Release(fh uint64) {
	t.handles.Delete(fh)
}

// Len returns the number of open handles
func (t *HandleTable) Len() int {
	return t.handles.Size()
}
