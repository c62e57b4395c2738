// Package wire provides bounds-checked readers over section and descriptor
// bytes. Every read that would run past the end of the slice fails with
// ErrTruncated; no reader in this package panics or reads out of bounds on
// malformed input, and none of them mutate the bytes they read.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/asticode/go-astikit"

	"github.com/zsiec/tsdesc/charset"
)

// ErrTruncated is returned when a read needs more bytes than remain.
var ErrTruncated = errors.New("wire: truncated")

// ReadError describes a read that would have crossed the end of the
// cursor. It unwraps to ErrTruncated.
type ReadError struct {
	Offset int
	Want   int
	Have   int
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("wire: read of %d bytes at offset %d, %d remaining: truncated", e.Want, e.Offset, e.Have)
}

func (e *ReadError) Unwrap() error {
	return ErrTruncated
}

// Cursor is a sequential big-endian reader over a fixed-length byte slice.
// A failed read leaves the position unchanged.
type Cursor struct {
	it *astikit.BytesIterator
	n  int
}

// NewCursor returns a cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{it: astikit.NewBytesIterator(b), n: len(b)}
}

// Len returns the total number of bytes the cursor covers.
func (c *Cursor) Len() int { return c.n }

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.it.Offset() }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return c.n - c.it.Offset() }

// AtEnd reports whether every byte has been consumed.
func (c *Cursor) AtEnd() bool { return c.Remaining() == 0 }

func (c *Cursor) next(n int) ([]byte, error) {
	off := c.it.Offset()
	if n < 0 || n > c.n-off {
		return nil, &ReadError{Offset: off, Want: n, Have: c.n - off}
	}
	bs, err := c.it.NextBytesNoCopy(n)
	if err != nil {
		c.it.Seek(off)
		return nil, &ReadError{Offset: off, Want: n, Have: c.n - off}
	}
	return bs, nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	bs, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

// ReadU16 reads a big-endian 16-bit value.
func (c *Cursor) ReadU16() (uint16, error) {
	bs, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(bs), nil
}

// ReadU24 reads a big-endian 24-bit value.
func (c *Cursor) ReadU24() (uint32, error) {
	bs, err := c.next(3)
	if err != nil {
		return 0, err
	}
	return uint32(bs[0])<<16 | uint32(bs[1])<<8 | uint32(bs[2]), nil
}

// ReadU32 reads a big-endian 32-bit value.
func (c *Cursor) ReadU32() (uint32, error) {
	bs, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(bs), nil
}

// ReadU40 reads a big-endian 40-bit value, the width of DVB/ARIB UTC times.
func (c *Cursor) ReadU40() (uint64, error) {
	bs, err := c.next(5)
	if err != nil {
		return 0, err
	}
	return uint64(bs[0])<<32 | uint64(binary.BigEndian.Uint32(bs[1:])), nil
}

// ReadU48 reads a big-endian 48-bit value.
func (c *Cursor) ReadU48() (uint64, error) {
	bs, err := c.next(6)
	if err != nil {
		return 0, err
	}
	return uint64(binary.BigEndian.Uint16(bs))<<32 | uint64(binary.BigEndian.Uint32(bs[2:])), nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	bs, err := c.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, bs)
	return out, nil
}

// ReadRest returns a copy of every remaining byte.
func (c *Cursor) ReadRest() []byte {
	out, _ := c.ReadBytes(c.Remaining())
	return out
}

// Peek returns a copy of the next n bytes without consuming them.
func (c *Cursor) Peek(n int) ([]byte, error) {
	off := c.it.Offset()
	bs, err := c.ReadBytes(n)
	c.it.Seek(off)
	return bs, err
}

// ReadString reads n bytes and converts them to UTF-8 with dec.
func (c *Cursor) ReadString(n int, dec charset.Decoder) (string, error) {
	off := c.it.Offset()
	bs, err := c.next(n)
	if err != nil {
		return "", err
	}
	s, err := dec.Decode(bs)
	if err != nil {
		return "", fmt.Errorf("wire: string at offset %d: %w", off, err)
	}
	return s, nil
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.next(n)
	return err
}

// Sub consumes the next n bytes and returns a cursor bounded to them. It is
// used for nested loops whose length is declared on the wire.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	bs, err := c.next(n)
	if err != nil {
		return nil, err
	}
	return NewCursor(bs[:n:n]), nil
}

// Slice consumes the next n bytes and returns them without copying. The
// result shares storage with the cursor's input and its capacity is
// clipped to n.
func (c *Cursor) Slice(n int) ([]byte, error) {
	bs, err := c.next(n)
	if err != nil {
		return nil, err
	}
	return bs[:n:n], nil
}

// Bits consumes the next n bytes and returns a BitReader over them.
func (c *Cursor) Bits(n int) (*BitReader, error) {
	bs, err := c.next(n)
	if err != nil {
		return nil, err
	}
	return NewBitReader(bs[:n:n]), nil
}
