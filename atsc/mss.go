package atsc

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/wire"
)

// Segment modes of a multiple_string_structure.
const (
	ModeUTF16 uint8 = 0x3F
	maxPage   uint8 = 0x33
)

// Segment is one segment of a multiple string. Text is set when the
// segment is uncompressed in a mode this package converts; otherwise Raw
// holds the undecoded bytes.
type Segment struct {
	CompressionType uint8
	Mode            uint8
	Text            string
	Raw             []byte
}

// LangString is a string in one language.
type LangString struct {
	Language string
	Segments []Segment
}

// Text joins the decoded text of every segment.
func (s LangString) Text() string {
	var sb strings.Builder
	for _, seg := range s.Segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// MultipleString is the multiple_string_structure of ATSC A/65 used for
// channel names, program titles and rating texts.
type MultipleString []LangString

// Text returns the text of the first string, or "" when there is none.
func (m MultipleString) Text() string {
	if len(m) == 0 {
		return ""
	}
	return m[0].Text()
}

// ReadMultipleString parses a multiple_string_structure filling the rest
// of c.
func ReadMultipleString(c *wire.Cursor) (MultipleString, error) {
	n, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	// Each string carries at least a language code and a segment count.
	if int(n)*4 > c.Remaining() {
		return nil, fmt.Errorf("atsc: %d strings in %d bytes: %w", n, c.Remaining(), wire.ErrTruncated)
	}
	out := make(MultipleString, 0, n)
	for range n {
		lang, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		nseg, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		if int(nseg)*3 > c.Remaining() {
			return nil, fmt.Errorf("atsc: %d segments in %d bytes: %w", nseg, c.Remaining(), wire.ErrTruncated)
		}
		s := LangString{Language: lang, Segments: make([]Segment, 0, nseg)}
		for range nseg {
			seg, err := readSegment(c)
			if err != nil {
				return nil, err
			}
			s.Segments = append(s.Segments, seg)
		}
		out = append(out, s)
	}
	return out, nil
}

func readSegment(c *wire.Cursor) (Segment, error) {
	var seg Segment
	ct, err := c.ReadU8()
	if err != nil {
		return seg, err
	}
	mode, err := c.ReadU8()
	if err != nil {
		return seg, err
	}
	n, err := c.ReadU8()
	if err != nil {
		return seg, err
	}
	b, err := c.ReadBytes(int(n))
	if err != nil {
		return seg, err
	}
	seg.CompressionType, seg.Mode = ct, mode
	switch {
	case ct != 0:
		// Huffman-coded text (A/65 Annex C) is passed through undecoded.
		seg.Raw = b
	case mode <= maxPage:
		seg.Text = decodePage(mode, b)
	case mode == ModeUTF16:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
		if err != nil {
			seg.Raw = b
		} else {
			seg.Text = string(out)
		}
	default:
		seg.Raw = b
	}
	return seg, nil
}

// decodePage maps each byte to the Unicode code point mode<<8 | byte.
func decodePage(mode uint8, b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(mode)<<8 | rune(c))
	}
	return sb.String()
}
