package filesystem

import (
	"math"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/config"
)

// ContentBuffer holds one file's bytes. len(data) is the logical size and
// cap(data) the allocated capacity.
//
// INVARIANT: bytes in [size, capacity) are never returned by reads.
// INVARIANT: bytes exposed by growth that were not explicitly written are zero.
//
// NOTE: ContentBuffer is not thread-safe; it is guarded by its owning FileNode's lock
type ContentBuffer struct {
	data    []byte
	policy  config.GrowthPolicy
	maxSize int64 // 0 = unlimited
}

// NewContentBuffer returns an empty buffer with no allocated storage
func NewContentBuffer(policy config.GrowthPolicy, maxSize int64) *ContentBuffer {
	return &ContentBuffer{policy: policy, maxSize: maxSize}
}

// Size returns the logical length
func (b *ContentBuffer) Size() int64 {
	return int64(len(b.data))
}

// Cap returns the allocated length
func (b *ContentBuffer) Cap() int64 {
	return int64(cap(b.data))
}

// ReadAt copies bytes starting at off into p and returns how many were copied.
// Reading at or past the end copies nothing.
func (b *ContentBuffer) ReadAt(p []byte, off int64) int {
	if off < 0 || off >= int64(len(b.data)) {
		return 0
	}
	return copy(p, b.data[off:])
}

// Read returns a copy of at most length bytes starting at off
func (b *ContentBuffer) Read(off int64, length int) []byte {
	if off < 0 || length <= 0 || off >= int64(len(b.data)) {
		return []byte{}
	}
	n := min(int64(length), int64(len(b.data))-off)
	out := make([]byte, n)
	copy(out, b.data[off:off+n])
	return out
}

// Write copies p into the buffer at off, growing it as needed. In append mode
// off is ignored and p lands at the current end. Any gap between the old size
// and off is zero filled. On error the buffer is left unchanged.
func (b *ContentBuffer) Write(off int64, p []byte, appendMode bool) (int, error) {
	size := int64(len(b.data))
	if appendMode {
		off = size
	}
	if off < 0 {
		return 0, nifs.ErrInvalid
	}
	if len(p) == 0 {
		return 0, nil
	}
	if int64(len(p)) > math.MaxInt64-off {
		return 0, nifs.ErrOutOfMemory
	}

	newSize := off + int64(len(p))
	if newSize > size {
		if err := b.resize(newSize); err != nil {
			return 0, err
		}
	}
	return copy(b.data[off:], p), nil
}

// Truncate sets the logical size. Shrinking drops bytes but keeps capacity;
// growing zero fills the new region.
func (b *ContentBuffer) Truncate(size int64) error {
	if size < 0 {
		return nifs.ErrInvalid
	}
	if size <= int64(len(b.data)) {
		b.data = b.data[:size]
		return nil
	}
	return b.resize(size)
}

// Release drops the storage and returns the number of bytes freed
func (b *ContentBuffer) Release() int64 {
	freed := int64(cap(b.data))
	b.data = nil
	return freed
}

// resize extends the logical size to newSize (> current size), reallocating
// when capacity is short. The exposed region is always zeroed so that
// truncate-then-regrow never resurrects stale bytes.
func (b *ContentBuffer) resize(newSize int64) error {
	if b.maxSize > 0 && newSize > b.maxSize {
		return nifs.ErrOutOfMemory
	}
	if newSize > math.MaxInt {
		return nifs.ErrOutOfMemory
	}

	oldSize := len(b.data)
	if newSize > int64(cap(b.data)) {
		buf, err := allocate(b.growCap(newSize))
		if err != nil {
			return err
		}
		copy(buf, b.data)
		b.data = buf[:oldSize]
	}
	b.data = b.data[:newSize]
	clear(b.data[oldSize:])
	return nil
}

// growCap picks the capacity for a buffer that must hold newSize bytes
func (b *ContentBuffer) growCap(newSize int64) int64 {
	if b.policy != config.GrowthAmortized {
		return newSize
	}
	newCap := max(newSize, 2*int64(cap(b.data)))
	if b.maxSize > 0 {
		newCap = min(newCap, b.maxSize)
	}
	return min(newCap, math.MaxInt)
}

// allocate turns a failed makeslice (length out of range) into ErrOutOfMemory
func allocate(n int64) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, nifs.ErrOutOfMemory
		}
	}()
	return make([]byte, n), nil
}
