package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsdesc/charset"
)

func TestCursorIntegers(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06,
		0x07, 0x08, 0x09, 0x0A,
		0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
		0x10, 0x11, 0x12, 0x13, 0x14, 0x15,
	})

	u8, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	u16, err := c.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), u16)

	u24, err := c.ReadU24()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x040506), u24)

	u32, err := c.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0708090A), u32)

	u40, err := c.ReadU40()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0B0C0D0E0F), u40)

	u48, err := c.ReadU48()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x101112131415), u48)

	assert.True(t, c.AtEnd())
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 21, c.Offset())
}

func TestCursorTruncatedDoesNotAdvance(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0xAA, 0xBB, 0xCC})
	require.NoError(t, c.Skip(2))

	_, err := c.ReadU16()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))

	var re *ReadError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 2, re.Offset)
	assert.Equal(t, 2, re.Want)
	assert.Equal(t, 1, re.Have)

	assert.Equal(t, 1, c.Remaining(), "failed read must not move the cursor")
	b, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xCC), b)
}

func TestCursorEmpty(t *testing.T) {
	t.Parallel()
	c := NewCursor(nil)
	assert.True(t, c.AtEnd())
	_, err := c.ReadU8()
	assert.ErrorIs(t, err, ErrTruncated)
	assert.ErrorIs(t, c.Skip(1), ErrTruncated)
	assert.NoError(t, c.Skip(0))
	_, err = c.ReadBytes(-1)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestCursorReadBytesCopies(t *testing.T) {
	t.Parallel()
	src := []byte{1, 2, 3, 4}
	c := NewCursor(src)
	got, err := c.ReadBytes(3)
	require.NoError(t, err)
	got[0] = 0xFF
	assert.Equal(t, byte(1), src[0], "ReadBytes must not alias the source")
	assert.Equal(t, []byte{4}, c.ReadRest())
	assert.Equal(t, []byte{}, c.ReadRest())
}

func TestCursorPeek(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0x10, 0x20, 0x30})
	p, err := c.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x20}, p)
	assert.Equal(t, 0, c.Offset())

	_, err = c.Peek(4)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, 0, c.Offset())
}

func TestCursorSub(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0x02, 0xAA, 0xBB, 0xCC})
	n, err := c.ReadU8()
	require.NoError(t, err)

	sub, err := c.Sub(int(n))
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	_, err = sub.ReadU24()
	assert.ErrorIs(t, err, ErrTruncated, "sub cursor must not see parent bytes")

	v, err := sub.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xAABB), v)
	assert.Equal(t, 1, c.Remaining())

	_, err = c.Sub(5)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestCursorSlice(t *testing.T) {
	t.Parallel()
	src := []byte{0x01, 0x02, 0x03}
	c := NewCursor(src)
	bs, err := c.Slice(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, bs)
	assert.Equal(t, 2, cap(bs))
	assert.Same(t, &src[0], &bs[0])

	_, err = c.Slice(2)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, 1, c.Remaining())
}

func TestCursorBits(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0xF0, 0x0F, 0x55})
	r, err := c.Bits(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xF), r.Uint32(4))
	assert.Equal(t, uint32(0x00), r.Uint32(8))
	assert.Equal(t, uint32(0xF), r.Uint32(4))
	require.NoError(t, r.Err())
	assert.Equal(t, 1, c.Remaining())
}

func TestCursorReadString(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte("engTail"))
	s, err := c.ReadString(3, charset.Latin1)
	require.NoError(t, err)
	assert.Equal(t, "eng", s)

	_, err = c.ReadString(10, charset.Latin1)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, 4, c.Remaining())
}

func BenchmarkCursorReadU16(b *testing.B) {
	data := make([]byte, 256)
	for b.Loop() {
		c := NewCursor(data)
		for !c.AtEnd() {
			c.ReadU16()
		}
	}
}
