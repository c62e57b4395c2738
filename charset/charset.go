// Package charset converts the character encodings found in broadcast
// service information to UTF-8. DVB strings select their table with a
// leading byte (ETSI EN 300 468 Annex A); ISDB strings use the ARIB
// STD-B24 8-unit code with ISO 2022 style designations and shifts.
package charset

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupported is returned for a character table this package cannot
// convert.
var ErrUnsupported = errors.New("charset: unsupported character table")

// Decoder converts raw string bytes to UTF-8.
type Decoder interface {
	Decode(b []byte) (string, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(b []byte) (string, error)

// Decode calls f(b).
func (f DecoderFunc) Decode(b []byte) (string, error) { return f(b) }

var (
	// Latin1 decodes ISO/IEC 8859-1, used for ISO 639 language and
	// ISO 3166 country codes.
	Latin1 Decoder = DecoderFunc(decodeLatin1)

	// UTF8 passes valid UTF-8 through and replaces invalid sequences.
	UTF8 Decoder = DecoderFunc(decodeUTF8)

	// DVB decodes EN 300 468 Annex A strings.
	DVB Decoder = DecoderFunc(decodeDVB)

	// ARIB decodes ARIB STD-B24 8-unit strings.
	ARIB Decoder = DecoderFunc(decodeARIB)
)

func decodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeUTF8(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	runes := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		runes = append(runes, r)
		b = b[size:]
	}
	return string(runes), nil
}
