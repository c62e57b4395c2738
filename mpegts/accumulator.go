package mpegts

import "sort"

// pidSet tracks which PIDs carry sections.
type pidSet struct {
	m map[uint16]bool
}

func newPIDSet(pids ...uint16) *pidSet {
	ps := &pidSet{m: make(map[uint16]bool, len(pids))}
	for _, pid := range pids {
		ps.add(pid)
	}
	return ps
}

func (ps *pidSet) add(pid uint16) {
	ps.m[pid] = true
}

func (ps *pidSet) has(pid uint16) bool {
	return ps.m[pid]
}

func (ps *pidSet) sorted() []uint16 {
	out := make([]uint16, 0, len(ps.m))
	for pid := range ps.m {
		out = append(out, pid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sectionAccumulator reassembles the sections carried on a single PID.
type sectionAccumulator struct {
	pid    uint16
	buf    []byte
	lastCC int
	synced bool
}

func newSectionAccumulator(pid uint16) *sectionAccumulator {
	return &sectionAccumulator{pid: pid, lastCC: -1}
}

func (sa *sectionAccumulator) reset() {
	sa.buf = nil
	sa.synced = false
}

// add feeds one packet and returns every section it completes. Returned
// slices are owned by the caller.
func (sa *sectionAccumulator) add(p *Packet) [][]byte {
	// Sections cannot be recovered from damaged or scrambled payloads.
	if p.Header.TransportErrorIndicator || p.Header.ScramblingControl != 0 {
		sa.reset()
		return nil
	}

	// Skip adaptation-only packets (no payload).
	if !p.Header.HasPayload {
		return nil
	}

	// A signaled discontinuity indicator means the CC jump is expected.
	cc := int(p.Header.ContinuityCounter)
	if sa.lastCC >= 0 && !p.Header.DiscontinuityIndicator {
		if cc == sa.lastCC {
			return nil // duplicate packet, drop
		}
		if cc != (sa.lastCC+1)&0x0F {
			sa.reset()
		}
	}
	sa.lastCC = cc

	payload := p.Payload
	if !p.Header.PayloadUnitStartIndicator {
		if !sa.synced {
			return nil
		}
		sa.buf = append(sa.buf, payload...)
		return sa.drain()
	}

	if len(payload) == 0 {
		sa.reset()
		return nil
	}
	pointer := int(payload[0])
	if 1+pointer > len(payload) {
		sa.reset()
		return nil
	}

	// Bytes before the pointer complete the section in progress.
	var out [][]byte
	if sa.synced {
		sa.buf = append(sa.buf, payload[1:1+pointer]...)
		out = sa.drain()
	}
	sa.buf = append(sa.buf[:0], payload[1+pointer:]...)
	sa.synced = true
	return append(out, sa.drain()...)
}

// drain removes complete sections from the front of the buffer. Stuffing
// (0xFF) ends the sections of the current packet.
func (sa *sectionAccumulator) drain() [][]byte {
	var out [][]byte
	for len(sa.buf) > 0 {
		if sa.buf[0] == 0xFF {
			sa.buf = sa.buf[:0]
			sa.synced = false
			break
		}
		if len(sa.buf) < 3 {
			break
		}
		n := 3 + (int(sa.buf[1]&0x0F)<<8 | int(sa.buf[2]))
		if len(sa.buf) < n {
			break
		}
		out = append(out, append([]byte(nil), sa.buf[:n]...))
		sa.buf = sa.buf[n:]
	}
	if len(sa.buf) == 0 {
		sa.buf = nil
	}
	return out
}

// accumulatorPool manages per-PID accumulators.
type accumulatorPool struct {
	accs map[uint16]*sectionAccumulator
}

func newAccumulatorPool() *accumulatorPool {
	return &accumulatorPool{accs: make(map[uint16]*sectionAccumulator)}
}

func (ap *accumulatorPool) add(p *Packet) [][]byte {
	pid := p.Header.PID
	acc, ok := ap.accs[pid]
	if !ok {
		acc = newSectionAccumulator(pid)
		ap.accs[pid] = acc
	}
	return acc.add(p)
}
