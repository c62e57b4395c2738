package wire

import "fmt"

// BitReader reads bits MSB-first from a byte slice. Reads past the end
// yield zero bits and latch an overflow that Err reports.
type BitReader struct {
	data     []byte
	bitPos   int
	overflow bool
}

// NewBitReader returns a reader positioned at the first bit of data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// BitsLeft returns the number of unread bits.
func (r *BitReader) BitsLeft() int {
	total := len(r.data) * 8
	if r.bitPos > total {
		return 0
	}
	return total - r.bitPos
}

// Bit reads a single bit.
func (r *BitReader) Bit() bool {
	if r.bitPos >= len(r.data)*8 {
		r.overflow = true
		return false
	}
	byteIdx := r.bitPos / 8
	bitIdx := 7 - (r.bitPos % 8)
	r.bitPos++
	return (r.data[byteIdx]>>uint(bitIdx))&1 == 1
}

// Uint32 reads an n-bit unsigned value, n <= 32.
func (r *BitReader) Uint32(n int) uint32 {
	var val uint32
	for i := 0; i < n; i++ {
		val <<= 1
		if r.Bit() {
			val |= 1
		}
	}
	return val
}

// Uint64 reads an n-bit unsigned value, n <= 64.
func (r *BitReader) Uint64(n int) uint64 {
	var val uint64
	for i := 0; i < n; i++ {
		val <<= 1
		if r.Bit() {
			val |= 1
		}
	}
	return val
}

// Bytes reads n whole bytes. It returns nil and latches an overflow when
// fewer than n bytes remain.
func (r *BitReader) Bytes(n int) []byte {
	if n < 0 || n*8 > r.BitsLeft() {
		r.overflow = true
		r.bitPos = len(r.data) * 8
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(r.Uint32(8))
	}
	return out
}

// Skip advances n bits.
func (r *BitReader) Skip(n int) {
	r.bitPos += n
	if r.bitPos > len(r.data)*8 {
		r.overflow = true
	}
}

// Err returns an error wrapping ErrTruncated if any read ran past the end.
func (r *BitReader) Err() error {
	if !r.overflow {
		return nil
	}
	return fmt.Errorf("wire: bit reader overran %d-byte field: %w", len(r.data), ErrTruncated)
}
