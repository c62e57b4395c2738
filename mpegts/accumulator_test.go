package mpegts

import (
	"bytes"
	"testing"

	"github.com/zsiec/tsdesc/internal/tstest"
)

func pkt(cc uint8, pusi bool, payload []byte) *Packet {
	return &Packet{
		Header:  PacketHeader{PID: 0x100, HasPayload: true, PayloadUnitStartIndicator: pusi, ContinuityCounter: cc},
		Payload: payload,
	}
}

// withPointer prefixes payload with a pointer_field.
func withPointer(ptr byte, payload ...[]byte) []byte {
	out := []byte{ptr}
	for _, p := range payload {
		out = append(out, p...)
	}
	return out
}

func TestAccumulator_SingleSection(t *testing.T) {
	t.Parallel()
	sec := tstest.PAT(1, 1, 0x100)
	acc := newSectionAccumulator(0x100)
	got := acc.add(pkt(0, true, withPointer(0, sec, []byte{0xFF, 0xFF})))
	if len(got) != 1 || !bytes.Equal(got[0], sec) {
		t.Fatalf("got %d sections, want the PAT", len(got))
	}
}

func TestAccumulator_SectionAcrossPackets(t *testing.T) {
	t.Parallel()
	sec := tstest.LongSection(0x42, 1, 0, make([]byte, 250))
	acc := newSectionAccumulator(0x100)
	if got := acc.add(pkt(0, true, withPointer(0, sec[:150]))); got != nil {
		t.Fatalf("incomplete section flushed %d sections", len(got))
	}
	got := acc.add(pkt(1, false, sec[150:]))
	if len(got) != 1 || !bytes.Equal(got[0], sec) {
		t.Fatalf("got %d sections, want the reassembled one", len(got))
	}
}

func TestAccumulator_PointerFieldCompletesPrevious(t *testing.T) {
	t.Parallel()
	a := tstest.LongSection(0x42, 1, 0, make([]byte, 20))
	b := tstest.LongSection(0x42, 2, 0, make([]byte, 10))
	acc := newSectionAccumulator(0x100)
	acc.add(pkt(0, true, withPointer(0, a[:12])))

	tail := a[12:]
	got := acc.add(pkt(1, true, withPointer(byte(len(tail)), tail, b)))
	if len(got) != 2 {
		t.Fatalf("got %d sections, want 2", len(got))
	}
	if !bytes.Equal(got[0], a) || !bytes.Equal(got[1], b) {
		t.Error("sections out of order or corrupted")
	}
}

func TestAccumulator_ContinuationBeforeSyncDropped(t *testing.T) {
	t.Parallel()
	acc := newSectionAccumulator(0x100)
	if got := acc.add(pkt(4, false, []byte{0x00, 0xB0, 0x0D})); got != nil {
		t.Error("continuation without a start must be dropped")
	}
}

func TestAccumulator_CCDiscontinuity(t *testing.T) {
	t.Parallel()
	sec := tstest.LongSection(0x42, 1, 0, make([]byte, 250))
	acc := newSectionAccumulator(0x100)
	acc.add(pkt(0, true, withPointer(0, sec[:150])))

	// CC jump from 0 to 5 loses the section in progress.
	if got := acc.add(pkt(5, false, sec[150:])); got != nil {
		t.Errorf("section completed across a discontinuity: %d", len(got))
	}
}

func TestAccumulator_DiscontinuityIndicator(t *testing.T) {
	t.Parallel()
	sec := tstest.LongSection(0x42, 1, 0, make([]byte, 250))
	acc := newSectionAccumulator(0x100)
	acc.add(pkt(0, true, withPointer(0, sec[:150])))

	p := pkt(9, false, sec[150:])
	p.Header.DiscontinuityIndicator = true
	if got := acc.add(p); len(got) != 1 {
		t.Errorf("signaled discontinuity should keep the section, got %d", len(got))
	}
}

func TestAccumulator_DuplicateFilter(t *testing.T) {
	t.Parallel()
	sec := tstest.LongSection(0x42, 1, 0, make([]byte, 250))
	acc := newSectionAccumulator(0x100)
	acc.add(pkt(3, true, withPointer(0, sec[:150])))
	if got := acc.add(pkt(3, true, withPointer(0, sec[:150]))); got != nil {
		t.Error("duplicate should be filtered")
	}
	if got := acc.add(pkt(4, false, sec[150:])); len(got) != 1 {
		t.Errorf("should complete 1 section, got %d", len(got))
	}
}

func TestAccumulator_CCWraparound(t *testing.T) {
	t.Parallel()
	sec := tstest.LongSection(0x42, 1, 0, make([]byte, 250))
	acc := newSectionAccumulator(0x100)
	acc.add(pkt(15, true, withPointer(0, sec[:150])))
	if got := acc.add(pkt(0, false, sec[150:])); len(got) != 1 {
		t.Errorf("CC 15 -> 0 is continuous, got %d sections", len(got))
	}
}

func TestAccumulator_TEIDiscard(t *testing.T) {
	t.Parallel()
	sec := tstest.LongSection(0x42, 1, 0, make([]byte, 250))
	acc := newSectionAccumulator(0x100)
	acc.add(pkt(0, true, withPointer(0, sec[:150])))

	bad := pkt(1, false, sec[150:])
	bad.Header.TransportErrorIndicator = true
	if got := acc.add(bad); got != nil {
		t.Error("TEI packet must not complete a section")
	}
	if got := acc.add(pkt(2, false, sec[150:])); got != nil {
		t.Error("buffer should have been discarded")
	}
}

func TestAccumulator_ScrambledDiscard(t *testing.T) {
	t.Parallel()
	sec := tstest.LongSection(0x42, 1, 0, make([]byte, 20))
	acc := newSectionAccumulator(0x100)

	p := pkt(0, true, withPointer(0, sec))
	p.Header.ScramblingControl = 3
	if got := acc.add(p); got != nil {
		t.Fatal("scrambled packet produced a section")
	}
	if got := acc.add(pkt(1, true, withPointer(0, sec))); len(got) != 1 {
		t.Fatalf("clear packet after scrambled one: got %d sections, want 1", len(got))
	}
}

func TestAccumulator_AdaptationOnlySkipped(t *testing.T) {
	t.Parallel()
	acc := newSectionAccumulator(0x100)
	p := &Packet{Header: PacketHeader{PID: 0x100, HasAdaptationField: true}}
	if got := acc.add(p); got != nil {
		t.Error("adaptation-only packet should not produce sections")
	}
	if acc.lastCC != -1 {
		t.Error("adaptation-only packet must not advance the continuity counter")
	}
}

func TestAccumulator_BadPointerField(t *testing.T) {
	t.Parallel()
	acc := newSectionAccumulator(0x100)
	if got := acc.add(pkt(0, true, []byte{0x09, 0x00})); got != nil {
		t.Error("pointer past payload must be ignored")
	}
}

func TestPIDSetSorted(t *testing.T) {
	t.Parallel()
	ps := newPIDSet(0x12, 0x00, 0x1FFB)
	ps.add(0x100)
	got := ps.sorted()
	want := []uint16{0x00, 0x12, 0x100, 0x1FFB}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
