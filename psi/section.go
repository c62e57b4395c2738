// Package psi parses MPEG-2 PSI and DVB/ATSC/ISDB SI sections far enough to
// locate their descriptor loops. Tables keep loop regions as borrowed
// slices of the section; descriptor.Walker turns them into records.
package psi

import (
	"errors"
	"fmt"

	"github.com/zsiec/tsdesc/wire"
)

// Table IDs.
const (
	TableIDPAT        uint8 = 0x00
	TableIDCAT        uint8 = 0x01
	TableIDPMT        uint8 = 0x02
	TableIDNITActual  uint8 = 0x40
	TableIDNITOther   uint8 = 0x41
	TableIDSDTActual  uint8 = 0x42
	TableIDSDTOther   uint8 = 0x46
	TableIDBAT        uint8 = 0x4A
	TableIDEITFirst   uint8 = 0x4E
	TableIDEITLast    uint8 = 0x6F
	TableIDTDT        uint8 = 0x70
	TableIDTOT        uint8 = 0x73
	TableIDBIT        uint8 = 0xC4
	TableIDTVCT       uint8 = 0xC8
	TableIDCVCT       uint8 = 0xC9
	TableIDATSCEIT    uint8 = 0xCB
	TableIDSpliceInfo uint8 = 0xFC
	TableIDStuffing   uint8 = 0xFF
)

const (
	longHeaderLen    = 5
	crcLen           = 4
	maxSectionLength = 4093
)

var (
	ErrCRC              = errors.New("psi: CRC32 mismatch")
	ErrUnsupportedTable = errors.New("psi: unsupported table")
)

// Section is one PSI/SI section. Body is the payload after the header,
// excluding the CRC; for long-form sections it starts after
// last_section_number.
type Section struct {
	TableID                uint8
	SectionSyntaxIndicator bool
	PrivateIndicator       bool
	TableIDExtension       uint16
	VersionNumber          uint8
	CurrentNextIndicator   bool
	SectionNumber          uint8
	LastSectionNumber      uint8
	Body                   []byte
	Raw                    []byte
}

// Len returns the total length of the section including its 3-byte header.
func (s *Section) Len() int { return len(s.Raw) }

// HasCRC reports whether a section with this table ID and syntax indicator
// ends in CRC_32. TOT and splice_info_section are short-form but carry one.
func HasCRC(tableID uint8, syntax bool) bool {
	return syntax || tableID == TableIDTOT || tableID == TableIDSpliceInfo
}

// ParseSection parses the section starting at data[0]. Bytes after the
// section are ignored; use Section.Len to advance to the next one. Body and
// Raw alias data.
func ParseSection(data []byte) (*Section, error) {
	c := wire.NewCursor(data)
	tid, err := c.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("psi: section header: %w", err)
	}
	hdr, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("psi: section header: %w", err)
	}
	s := &Section{
		TableID:                tid,
		SectionSyntaxIndicator: hdr&0x8000 != 0,
		PrivateIndicator:       hdr&0x4000 != 0,
	}
	n := int(hdr & 0x0FFF)
	if n > maxSectionLength {
		return nil, fmt.Errorf("psi: section_length %d: %w", n, wire.ErrTruncated)
	}
	body, err := c.Slice(n)
	if err != nil {
		return nil, fmt.Errorf("psi: table 0x%02X section_length %d: %w", tid, n, err)
	}
	end := 3 + n
	s.Raw = data[:end:end]

	if HasCRC(tid, s.SectionSyntaxIndicator) {
		if n < crcLen {
			return nil, fmt.Errorf("psi: table 0x%02X section_length %d has no room for CRC: %w", tid, n, wire.ErrTruncated)
		}
		if !wire.CheckCRC32(s.Raw) {
			return nil, fmt.Errorf("psi: table 0x%02X: %w: stored 0x%08X, computed 0x%08X",
				tid, ErrCRC, wire.StoredCRC32(s.Raw), wire.CRC32(s.Raw[:len(s.Raw)-crcLen]))
		}
		m := n - crcLen
		body = body[:m:m]
	}
	if !s.SectionSyntaxIndicator {
		s.Body = body
		return s, nil
	}

	bc := wire.NewCursor(body)
	r, err := bc.Bits(longHeaderLen)
	if err != nil {
		return nil, fmt.Errorf("psi: table 0x%02X long header: %w", tid, err)
	}
	s.TableIDExtension = uint16(r.Uint32(16))
	r.Skip(2)
	s.VersionNumber = uint8(r.Uint32(5))
	s.CurrentNextIndicator = r.Bit()
	s.SectionNumber = uint8(r.Uint32(8))
	s.LastSectionNumber = uint8(r.Uint32(8))
	s.Body = body[longHeaderLen:]
	return s, nil
}

// Sections splits a payload holding back-to-back sections, stopping at
// stuffing (0xFF) or at the end of data. It returns the sections parsed
// before the first error.
func Sections(data []byte) ([]*Section, error) {
	var out []*Section
	for len(data) > 0 && data[0] != TableIDStuffing {
		s, err := ParseSection(data)
		if err != nil {
			return out, err
		}
		out = append(out, s)
		data = data[s.Len():]
	}
	return out, nil
}
