package descriptor

import "github.com/zsiec/tsdesc/wire"

// Chunks reports how many size-byte entries remain in c. It fails with
// ErrMalformedLength when the remainder is not a whole number of entries,
// so callers can size a slice before reading any of them.
func Chunks(c *wire.Cursor, size int) (int, error) {
	rem := c.Remaining()
	if rem%size != 0 {
		return 0, Malformed("%d bytes is not a multiple of %d-byte entries", rem, size)
	}
	return rem / size, nil
}

// LengthPrefixed reads an 8-bit length followed by that many bytes and
// returns a cursor over them.
func LengthPrefixed(c *wire.Cursor) (*wire.Cursor, error) {
	n, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	return c.Sub(int(n))
}
