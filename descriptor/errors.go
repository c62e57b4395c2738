package descriptor

import (
	"errors"
	"fmt"

	"github.com/zsiec/tsdesc/wire"
)

// Sentinel errors for descriptor decoding and registration. Match them with
// errors.Is.
var (
	// ErrTruncated is returned when a header, a declared length or a field
	// runs past the available bytes.
	ErrTruncated = wire.ErrTruncated

	// ErrMalformedLength is returned when a declared length does not match
	// the structure of the payload, for example a loop that is not a whole
	// number of entries or bytes left over after the last field.
	ErrMalformedLength = errors.New("descriptor: malformed length")

	ErrNotRegistered        = errors.New("descriptor: no decoder registered")
	ErrRegistrationConflict = errors.New("descriptor: decoder already registered")
	ErrRegistryFrozen       = errors.New("descriptor: registry is frozen")

	// ErrInvalidBCD is returned for a binary-coded decimal digit above 9.
	ErrInvalidBCD = errors.New("descriptor: invalid BCD digit")
)

// DecodeError reports a descriptor that could not be decoded. Offset is
// the position of the descriptor's tag byte within the walked region.
type DecodeError struct {
	Tag     uint8
	Context Context
	Offset  int
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("descriptor: tag 0x%02X at offset %d: %v", e.Tag, e.Offset, e.Err)
	}
	return fmt.Sprintf("descriptor: %s tag 0x%02X at offset %d: %v", e.Context, e.Tag, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Malformed wraps ErrMalformedLength with a description of what did not fit.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformedLength)
}
