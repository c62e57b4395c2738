// Package scte35 decodes SCTE-35 splice_info_sections and registers the
// splice descriptors (avail, DTMF, segmentation, time) under
// descriptor.ContextSCTE35. The splice_descriptor loop of a section is
// decoded with a descriptor.Walker, so private descriptors registered by
// other packages under that context are decoded too.
package scte35

import (
	"errors"
	"fmt"

	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/psi"
	"github.com/zsiec/tsdesc/wire"
)

// TableID is the table_id of a splice_info_section.
const TableID = 0xFC

// legacyCommandLength marks a splice_command_length left unspecified by
// older encoders; the command's own syntax then determines its length.
const legacyCommandLength = 0xFFF

var (
	ErrNotSpliceInfo = errors.New("scte35: not a splice_info_section")
	ErrEncrypted     = errors.New("scte35: encrypted splice_info_section")

	// ErrForeignIdentifier is returned by the descriptor decoders when the
	// identifier field is not "CUEI".
	ErrForeignIdentifier = errors.New("scte35: identifier is not CUEI")

	// ErrUnknownCommandLength is returned for a command type this package
	// does not know combined with the legacy unspecified command length.
	ErrUnknownCommandLength = errors.New("scte35: unknown command with unspecified length")
)

// SpliceInfoSection is the top-level SCTE-35 structure. Descriptors holds
// one outcome per splice_descriptor, in wire order.
type SpliceInfoSection struct {
	SAPType             uint32
	ProtocolVersion     uint8
	EncryptedPacket     bool
	EncryptionAlgorithm uint8
	PTSAdjustment       uint64
	CWIndex             uint8
	Tier                uint32
	SpliceCommand       SpliceCommand
	Descriptors         []descriptor.Outcome
}

// SegmentationDescriptors returns the segmentation descriptors that
// decoded successfully.
func (sis *SpliceInfoSection) SegmentationDescriptors() []*SegmentationDescriptor {
	var out []*SegmentationDescriptor
	for _, o := range sis.Descriptors {
		if sd, ok := o.Record.(*SegmentationDescriptor); ok {
			out = append(out, sd)
		}
	}
	return out
}

// NewWalker returns a walker for splice_descriptor loops.
func NewWalker(reg *descriptor.Registry, opts ...func(*descriptor.Walker)) *descriptor.Walker {
	opts = append([]func(*descriptor.Walker){descriptor.WalkerOptContexts(descriptor.ContextSCTE35)}, opts...)
	return descriptor.NewWalker(reg, opts...)
}

// DecodeBytes decodes a binary splice_info_section using the descriptor
// decoders in reg.
func DecodeBytes(reg *descriptor.Registry, data []byte) (*SpliceInfoSection, error) {
	return Decode(NewWalker(reg), data)
}

// Decode decodes a binary splice_info_section, walking its descriptor
// loop with w. Bytes after the section (TS packet stuffing) are ignored.
// The returned section is nil on error, except for ErrEncrypted where the
// clear header fields are filled in.
func Decode(w *descriptor.Walker, data []byte) (*SpliceInfoSection, error) {
	c := wire.NewCursor(data)
	tid, err := c.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("scte35: header: %w", err)
	}
	if tid != TableID {
		return nil, fmt.Errorf("%w: table_id 0x%02X", ErrNotSpliceInfo, tid)
	}
	hdr, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("scte35: header: %w", err)
	}
	sectionLength := int(hdr & 0x0FFF)
	if sectionLength > c.Remaining() {
		return nil, fmt.Errorf("scte35: section_length %d exceeds %d bytes: %w", sectionLength, c.Remaining(), wire.ErrTruncated)
	}
	if sectionLength < 4 {
		return nil, fmt.Errorf("scte35: section_length %d leaves no room for the CRC: %w", sectionLength, wire.ErrTruncated)
	}
	section := data[:3+sectionLength]
	if !wire.CheckCRC32(section) {
		return nil, fmt.Errorf("scte35: %w: stored 0x%08X", psi.ErrCRC, wire.StoredCRC32(section))
	}
	body := section[3 : len(section)-4]

	r := wire.NewBitReader(body)
	sis := &SpliceInfoSection{SAPType: uint32(hdr>>12) & 0x03}
	sis.ProtocolVersion = uint8(r.Uint32(8))
	sis.EncryptedPacket = r.Bit()
	sis.EncryptionAlgorithm = uint8(r.Uint32(6))
	sis.PTSAdjustment = r.Uint64(33)
	sis.CWIndex = uint8(r.Uint32(8))
	sis.Tier = r.Uint32(12)
	cmdLen := int(r.Uint32(12))
	cmdType := uint8(r.Uint32(8))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("scte35: header: %w", err)
	}
	if sis.EncryptedPacket {
		return sis, ErrEncrypted
	}

	rest := body[11:]
	if cmdLen == legacyCommandLength {
		cr := wire.NewBitReader(rest)
		if sis.SpliceCommand, err = decodeCommand(cmdType, cr, true); err != nil {
			return nil, fmt.Errorf("scte35: command 0x%02X: %w", cmdType, err)
		}
		cmdLen = len(rest) - cr.BitsLeft()/8
	} else {
		if cmdLen > len(rest) {
			return nil, fmt.Errorf("scte35: splice_command_length %d exceeds %d bytes: %w", cmdLen, len(rest), wire.ErrTruncated)
		}
		if sis.SpliceCommand, err = decodeCommand(cmdType, wire.NewBitReader(rest[:cmdLen]), false); err != nil {
			return nil, fmt.Errorf("scte35: command 0x%02X: %w", cmdType, err)
		}
	}

	tail := wire.NewCursor(rest[cmdLen:])
	loopLen, err := tail.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("scte35: descriptor_loop_length: %w", err)
	}
	if int(loopLen) > tail.Remaining() {
		return nil, fmt.Errorf("scte35: descriptor_loop_length %d exceeds %d bytes: %w", loopLen, tail.Remaining(), wire.ErrTruncated)
	}
	loop := rest[cmdLen+2 : cmdLen+2+int(loopLen)]
	sis.Descriptors = w.Decode(loop)
	return sis, nil
}
