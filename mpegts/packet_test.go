package mpegts

import (
	"errors"
	"testing"
)

func makePacket(pid uint16, cc uint8, pusi bool, payload []byte) []byte {
	buf := make([]byte, packetSize)
	buf[0] = syncByte
	buf[1] = byte(pid>>8) & 0x1F
	buf[2] = byte(pid)
	buf[3] = 0x10 | (cc & 0x0F) // payload only
	if pusi {
		buf[1] |= 0x40
	}
	copy(buf[4:], payload)
	return buf
}

func makePacketWithAF(pid uint16, cc uint8, afLen int, discontinuity bool, payload []byte) []byte {
	buf := make([]byte, packetSize)
	buf[0] = syncByte
	buf[1] = byte(pid>>8) & 0x1F
	buf[2] = byte(pid)
	if payload != nil {
		buf[3] = 0x30 | (cc & 0x0F) // adaptation + payload
	} else {
		buf[3] = 0x20 | (cc & 0x0F) // adaptation only
	}
	buf[4] = byte(afLen)
	if discontinuity && afLen > 0 {
		buf[5] = 0x80
	}
	if offset := 5 + afLen; offset < packetSize {
		copy(buf[offset:], payload)
	}
	return buf
}

func TestParsePacket(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		buf        []byte
		wantPID    uint16
		wantCC     uint8
		wantPUSI   bool
		wantAF     bool
		wantDisc   bool
		wantPayLen int
	}{
		{"payload only", makePacket(0x100, 5, false, []byte{1, 2, 3}), 0x100, 5, false, false, false, 184},
		{"pusi", makePacket(0x1E1, 0, true, nil), 0x1E1, 0, true, false, false, 184},
		{"max pid", makePacket(0x1FFF, 15, false, nil), 0x1FFF, 15, false, false, false, 184},
		{"af 1 byte", makePacketWithAF(0x100, 0, 1, false, []byte{0xAA}), 0x100, 0, false, true, false, 188 - 6},
		{"af 10 bytes with discontinuity", makePacketWithAF(0x100, 3, 10, true, []byte{0xBB}), 0x100, 3, false, true, true, 188 - 15},
		{"af only", makePacketWithAF(0x100, 0, 183, false, nil), 0x100, 0, false, true, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := parsePacket(tc.buf)
			if err != nil {
				t.Fatal(err)
			}
			if p.Header.PID != tc.wantPID {
				t.Errorf("PID = 0x%X, want 0x%X", p.Header.PID, tc.wantPID)
			}
			if p.Header.ContinuityCounter != tc.wantCC {
				t.Errorf("CC = %d, want %d", p.Header.ContinuityCounter, tc.wantCC)
			}
			if p.Header.PayloadUnitStartIndicator != tc.wantPUSI {
				t.Errorf("PUSI = %v, want %v", p.Header.PayloadUnitStartIndicator, tc.wantPUSI)
			}
			if p.Header.HasAdaptationField != tc.wantAF {
				t.Errorf("HasAdaptationField = %v, want %v", p.Header.HasAdaptationField, tc.wantAF)
			}
			if p.Header.DiscontinuityIndicator != tc.wantDisc {
				t.Errorf("DiscontinuityIndicator = %v, want %v", p.Header.DiscontinuityIndicator, tc.wantDisc)
			}
			if len(p.Payload) != tc.wantPayLen {
				t.Errorf("payload length = %d, want %d", len(p.Payload), tc.wantPayLen)
			}
		})
	}
}

func TestParsePacket_TEI(t *testing.T) {
	t.Parallel()
	buf := makePacket(0x100, 0, false, nil)
	buf[1] |= 0x80
	p, err := parsePacket(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Header.TransportErrorIndicator {
		t.Error("TEI should be true")
	}
}

func TestParsePacket_Scrambled(t *testing.T) {
	t.Parallel()
	buf := makePacket(0x100, 0, false, nil)
	buf[3] |= 0x80
	p, err := parsePacket(buf)
	if err != nil {
		t.Fatal(err)
	}
	if p.Header.ScramblingControl != 2 {
		t.Errorf("ScramblingControl = %d, want 2", p.Header.ScramblingControl)
	}
	if p.Header.ContinuityCounter != 0 || !p.Header.HasPayload {
		t.Errorf("scrambling bits leaked into header: %+v", p.Header)
	}
}

func TestParsePacket_Errors(t *testing.T) {
	t.Parallel()
	bad := make([]byte, packetSize)
	if _, err := parsePacket(bad); !errors.Is(err, ErrSync) {
		t.Errorf("err = %v, want ErrSync", err)
	}
	if _, err := parsePacket([]byte{0x47, 0x00, 0x00}); err == nil {
		t.Error("expected error for wrong packet size")
	}
}

func FuzzParsePacket(f *testing.F) {
	f.Add(makePacket(0, 0, true, []byte{0x00, 0x00, 0xB0, 0x0D}))
	f.Add(makePacketWithAF(0x100, 1, 7, true, []byte{0x01}))
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) != packetSize {
			return
		}
		parsePacket(data) // must not panic
	})
}
