// Package tstest builds PSI sections, descriptor loops and TS packets for
// tests.
package tstest

import (
	"encoding/binary"

	"github.com/zsiec/tsdesc/wire"
)

// Descriptor returns a descriptor with the given tag and payload.
func Descriptor(tag uint8, payload ...byte) []byte {
	return append([]byte{tag, byte(len(payload))}, payload...)
}

// Loop concatenates descriptors behind a 16-bit field whose low 12 bits
// carry their total length.
func Loop(descs ...[]byte) []byte {
	var body []byte
	for _, d := range descs {
		body = append(body, d...)
	}
	return append(binary.BigEndian.AppendUint16(nil, 0xF000|uint16(len(body))), body...)
}

// LongSection builds a long-form section (section_syntax_indicator set)
// ending in a valid CRC_32.
func LongSection(tableID uint8, ext uint16, version uint8, body []byte) []byte {
	n := 5 + len(body) + 4
	sec := []byte{tableID, 0xB0 | byte(n>>8)&0x0F, byte(n)}
	sec = binary.BigEndian.AppendUint16(sec, ext)
	flags := 0xC1 | (version&0x1F)<<1
	sec = append(sec, flags, 0x00, 0x00)
	sec = append(sec, body...)
	return binary.BigEndian.AppendUint32(sec, wire.CRC32(sec))
}

// ShortSection builds a short-form section. With crc set the body is
// followed by CRC_32, as in a TOT.
func ShortSection(tableID uint8, body []byte, crc bool) []byte {
	n := len(body)
	if crc {
		n += 4
	}
	sec := append([]byte{tableID, 0x70 | byte(n>>8)&0x0F, byte(n)}, body...)
	if crc {
		sec = binary.BigEndian.AppendUint32(sec, wire.CRC32(sec))
	}
	return sec
}

// Packetize splits payload into 188-byte TS packets on pid. The first
// packet sets payload_unit_start_indicator with a zero pointer_field; the
// last is padded with 0xFF. Continuity counters start at cc.
func Packetize(pid uint16, cc uint8, payload []byte) []byte {
	var out []byte
	first := true
	for first || len(payload) > 0 {
		pkt := make([]byte, 4, 188)
		pkt[0] = 0x47
		pkt[1] = byte(pid>>8) & 0x1F
		pkt[2] = byte(pid)
		pkt[3] = 0x10 | cc&0x0F
		if first {
			pkt[1] |= 0x40
			pkt = append(pkt, 0x00)
			first = false
		}
		n := min(188-len(pkt), len(payload))
		pkt = append(pkt, payload[:n]...)
		payload = payload[n:]
		for len(pkt) < 188 {
			pkt = append(pkt, 0xFF)
		}
		out = append(out, pkt...)
		cc++
	}
	return out
}

// PAT returns a PAT section mapping program numbers to PMT PIDs, given as
// alternating pairs.
func PAT(tsID uint16, programs ...uint16) []byte {
	var body []byte
	for i := 0; i+1 < len(programs); i += 2 {
		body = binary.BigEndian.AppendUint16(body, programs[i])
		body = binary.BigEndian.AppendUint16(body, 0xE000|programs[i+1])
	}
	return LongSection(0x00, tsID, 0, body)
}

// Stream is an elementary stream entry for PMT.
type Stream struct {
	Type uint8
	PID  uint16
	Info [][]byte
}

// PMT returns a PMT section.
func PMT(program, pcrPID uint16, info [][]byte, streams ...Stream) []byte {
	body := binary.BigEndian.AppendUint16(nil, 0xE000|pcrPID)
	body = append(body, Loop(info...)...)
	for _, s := range streams {
		body = append(body, s.Type)
		body = binary.BigEndian.AppendUint16(body, 0xE000|s.PID)
		body = append(body, Loop(s.Info...)...)
	}
	return LongSection(0x02, program, 0, body)
}
