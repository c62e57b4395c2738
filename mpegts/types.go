// Package mpegts reads MPEG transport streams and reassembles the PSI/SI
// and SCTE-35 sections carried on section PIDs. PMT and SCTE-35 PIDs are
// learned from the PAT and PMTs as they arrive.
package mpegts

import "github.com/zsiec/tsdesc/psi"

// Well-known section PIDs.
const (
	PIDPAT  uint16 = 0x0000
	PIDCAT  uint16 = 0x0001
	PIDNIT  uint16 = 0x0010
	PIDSDT  uint16 = 0x0011 // SDT and BAT
	PIDEIT  uint16 = 0x0012
	PIDTOT  uint16 = 0x0014 // TDT and TOT
	PIDBIT  uint16 = 0x0024 // ISDB
	PIDPSIP uint16 = 0x1FFB // ATSC base PID
)

// StreamTypeSCTE35 is the PMT stream_type of SCTE-35 splice sections.
const StreamTypeSCTE35 uint8 = 0x86

// Packet is a parsed 188-byte MPEG-TS transport stream packet.
type Packet struct {
	Header  PacketHeader
	Payload []byte
}

// PacketHeader contains the parsed header fields of a transport stream packet.
type PacketHeader struct {
	PID                       uint16
	ContinuityCounter         uint8
	HasAdaptationField        bool
	HasPayload                bool
	PayloadUnitStartIndicator bool
	TransportErrorIndicator   bool
	DiscontinuityIndicator    bool

	// ScramblingControl is the 2-bit transport_scrambling_control; 0
	// means the payload is in the clear.
	ScramblingControl uint8
}

// DemuxerData is one reassembled section. Exactly one of Section and Err
// is set; Err reports a section that failed header or CRC validation.
type DemuxerData struct {
	PID     uint16
	Section *psi.Section
	Err     error
}
