package mpegts

import (
	"errors"
	"fmt"
)

const (
	packetSize = 188
	syncByte   = 0x47
)

// Packet framings. M2TS prefixes each packet with a 4-byte timecode;
// 204-byte packets carry 16 trailing Reed-Solomon bytes.
const (
	PacketSizeTS   = 188
	PacketSizeM2TS = 192
	PacketSizeRS   = 204
)

// ErrSync is returned for a packet that does not begin with the 0x47 sync
// byte.
var ErrSync = errors.New("mpegts: lost sync")

// parsePacket decodes the 4-byte header and adaptation field length of a
// 188-byte packet. The payload aliases buf.
func parsePacket(buf []byte) (*Packet, error) {
	if len(buf) != packetSize {
		return nil, fmt.Errorf("mpegts: %d-byte packet, want %d", len(buf), packetSize)
	}
	if buf[0] != syncByte {
		return nil, fmt.Errorf("%w: got 0x%02X", ErrSync, buf[0])
	}

	h := PacketHeader{
		TransportErrorIndicator:   buf[1]&0x80 != 0,
		PayloadUnitStartIndicator: buf[1]&0x40 != 0,
		PID:                       uint16(buf[1]&0x1F)<<8 | uint16(buf[2]),
		ScramblingControl:         buf[3] >> 6,
		HasAdaptationField:        buf[3]&0x20 != 0,
		HasPayload:                buf[3]&0x10 != 0,
		ContinuityCounter:         buf[3] & 0x0F,
	}

	start := 4
	if h.HasAdaptationField {
		n := int(buf[4])
		if n > 0 {
			h.DiscontinuityIndicator = buf[5]&0x80 != 0
		}
		start = min(5+n, packetSize)
	}

	p := &Packet{Header: h}
	if h.HasPayload && start < packetSize {
		p.Payload = buf[start:]
	}
	return p, nil
}
