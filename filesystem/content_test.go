package filesystem

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/config"
)

func TestContentBuffer_Empty(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)

	assert.Equal(t, int64(0), b.Size())
	assert.Equal(t, int64(0), b.Cap())
	assert.Empty(t, b.Read(0, 10))
}

func TestContentBuffer_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	data := []byte("hello world")

	n, err := b.Write(0, data, false)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, b.Read(0, len(data)))
}

func TestContentBuffer_Read(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	_, err := b.Write(0, []byte("0123456789"), false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset int64
		length int
		exp    string
	}{
		{"full", 0, 10, "0123456789"},
		{"middle", 3, 4, "3456"},
		{"clipped_at_end", 8, 10, "89"},
		{"at_end", 10, 5, ""},
		{"past_end", 100, 5, ""},
		{"zero_length", 2, 0, ""},
		{"negative_offset", -1, 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, string(b.Read(tt.offset, tt.length)))
		})
	}
}

func TestContentBuffer_ReadAt(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	_, err := b.Write(0, []byte("abcdef"), false)
	require.NoError(t, err)

	buf := make([]byte, 4)
	assert.Equal(t, 4, b.ReadAt(buf, 1))
	assert.Equal(t, "bcde", string(buf))

	assert.Equal(t, 2, b.ReadAt(buf, 4))
	assert.Equal(t, "ef", string(buf[:2]))

	assert.Equal(t, 0, b.ReadAt(buf, 6))
}

func TestContentBuffer_ReadReturnsCopy(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	_, err := b.Write(0, []byte("abc"), false)
	require.NoError(t, err)

	out := b.Read(0, 3)
	out[0] = 'X'

	assert.Equal(t, "abc", string(b.Read(0, 3)), "callers must not alias the buffer")
}

func TestContentBuffer_ZeroFillHole(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	_, err := b.Write(0, []byte("head"), false)
	require.NoError(t, err)

	n, err := b.Write(10, []byte("tail"), false)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(14), b.Size())

	hole := b.Read(4, 6)
	assert.Equal(t, make([]byte, 6), hole, "gap must read as zeros")
	assert.Equal(t, "tail", string(b.Read(10, 4)))
}

func TestContentBuffer_ExactGrowth(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	for i := 1; i <= 5; i++ {
		_, err := b.Write(0, []byte("x"), true)
		require.NoError(t, err)
		assert.Equal(t, int64(i), b.Size())
		assert.Equal(t, b.Size(), b.Cap(), "capacity must track size on growth")
	}
}

func TestContentBuffer_AmortizedGrowth(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthAmortized, 0)
	_, err := b.Write(0, []byte("abcd"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(4), b.Cap())

	_, err = b.Write(0, []byte("e"), true)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Size())
	assert.Equal(t, int64(8), b.Cap(), "capacity must double")
	assert.Equal(t, "abcde", string(b.Read(0, 10)))
}

func TestContentBuffer_AmortizedGrowthCappedByMax(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthAmortized, 6)
	_, err := b.Write(0, []byte("abcd"), false)
	require.NoError(t, err)
	_, err = b.Write(0, []byte("e"), true)
	require.NoError(t, err)

	assert.Equal(t, int64(6), b.Cap())
}

func TestContentBuffer_Overwrite(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	_, err := b.Write(0, []byte("hello world"), false)
	require.NoError(t, err)

	_, err = b.Write(6, []byte("there"), false)
	require.NoError(t, err)

	assert.Equal(t, int64(11), b.Size(), "overwrite must not grow")
	assert.Equal(t, "hello there", string(b.Read(0, 20)))
}

func TestContentBuffer_Append(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	_, err := b.Write(999, []byte("one"), true)
	require.NoError(t, err)
	_, err = b.Write(0, []byte("two"), true)
	require.NoError(t, err)

	assert.Equal(t, "onetwo", string(b.Read(0, 10)), "append must ignore the offset")
}

func TestContentBuffer_EmptyWrite(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	n, err := b.Write(100, nil, false)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(0), b.Size(), "empty write must not extend the file")
}

func TestContentBuffer_WriteErrorsLeaveBufferUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		max    int64
		offset int64
		data   []byte
		err    error
	}{
		{"negative_offset", 0, -1, []byte("x"), nifs.ErrInvalid},
		{"exceeds_max_size", 8, 5, []byte("abcd"), nifs.ErrOutOfMemory},
		{"offset_overflow", 0, math.MaxInt64, []byte("ab"), nifs.ErrOutOfMemory},
		{"allocation_fails", 0, math.MaxInt64 - 2, []byte("a"), nifs.ErrOutOfMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := NewContentBuffer(config.GrowthExact, tt.max)
			_, err := b.Write(0, []byte("seed"), false)
			require.NoError(t, err)
			capBefore := b.Cap()

			n, err := b.Write(tt.offset, tt.data, false)

			require.ErrorIs(t, err, tt.err)
			assert.Zero(t, n)
			assert.Equal(t, int64(4), b.Size())
			assert.Equal(t, capBefore, b.Cap())
			assert.Equal(t, "seed", string(b.Read(0, 10)))
		})
	}
}

func TestContentBuffer_Truncate(t *testing.T) {
	t.Parallel()

	t.Run("shrink keeps capacity", func(t *testing.T) {
		t.Parallel()
		b := NewContentBuffer(config.GrowthExact, 0)
		_, err := b.Write(0, []byte("abcdef"), false)
		require.NoError(t, err)

		require.NoError(t, b.Truncate(2))

		assert.Equal(t, int64(2), b.Size())
		assert.Equal(t, int64(6), b.Cap())
		assert.Equal(t, "ab", string(b.Read(0, 10)))
	})
	t.Run("grow zero fills", func(t *testing.T) {
		t.Parallel()
		b := NewContentBuffer(config.GrowthExact, 0)
		_, err := b.Write(0, []byte("ab"), false)
		require.NoError(t, err)

		require.NoError(t, b.Truncate(5))

		assert.Equal(t, []byte{'a', 'b', 0, 0, 0}, b.Read(0, 10))
	})
	t.Run("regrow does not resurrect bytes", func(t *testing.T) {
		t.Parallel()
		b := NewContentBuffer(config.GrowthExact, 0)
		_, err := b.Write(0, []byte("abcdef"), false)
		require.NoError(t, err)
		require.NoError(t, b.Truncate(1))

		_, err = b.Write(4, []byte("Z"), false)
		require.NoError(t, err)

		assert.Equal(t, []byte{'a', 0, 0, 0, 'Z'}, b.Read(0, 10))
	})
	t.Run("negative size", func(t *testing.T) {
		t.Parallel()
		b := NewContentBuffer(config.GrowthExact, 0)
		assert.ErrorIs(t, b.Truncate(-1), nifs.ErrInvalid)
	})
	t.Run("exceeds max size", func(t *testing.T) {
		t.Parallel()
		b := NewContentBuffer(config.GrowthExact, 4)
		assert.ErrorIs(t, b.Truncate(5), nifs.ErrOutOfMemory)
		assert.Equal(t, int64(0), b.Size())
	})
}

func TestContentBuffer_Release(t *testing.T) {
	t.Parallel()

	b := NewContentBuffer(config.GrowthExact, 0)
	_, err := b.Write(0, bytes.Repeat([]byte("x"), 64), false)
	require.NoError(t, err)

	assert.Equal(t, int64(64), b.Release())
	assert.Equal(t, int64(0), b.Size())
	assert.Equal(t, int64(0), b.Cap())
}
