package mpegts

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/cespare/xxhash/v2"

	"github.com/zsiec/tsdesc/psi"
)

// Demuxer reads MPEG-TS packets from a reader and produces the sections
// carried on section PIDs.
type Demuxer struct {
	ctx        context.Context
	reader     io.Reader
	readBuf    []byte
	pool       *accumulatorPool
	pids       *pidSet
	dataBuffer []*DemuxerData
	pktSize    int
	dedupe     bool
	lastHash   map[sectionKey]uint64
	log        *slog.Logger
	eof        bool
}

// sectionKey identifies a section slot whose content repeats in a
// carousel.
type sectionKey struct {
	pid     uint16
	tableID uint8
	ext     uint16
	number  uint8
}

// NewDemuxer creates a new MPEG-TS demuxer reading from r.
func NewDemuxer(ctx context.Context, r io.Reader, opts ...func(*Demuxer)) *Demuxer {
	d := &Demuxer{
		ctx:     ctx,
		reader:  r,
		pktSize: PacketSizeTS,
		pool:    newAccumulatorPool(),
		pids:    newPIDSet(PIDPAT, PIDCAT, PIDNIT, PIDSDT, PIDEIT, PIDTOT, PIDBIT, PIDPSIP),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	d.log = d.log.With("component", "mpegts-demuxer")
	d.readBuf = make([]byte, d.pktSize)
	return d
}

// DemuxerOptPacketSize sets the TS packet size: PacketSizeTS (default),
// PacketSizeM2TS or PacketSizeRS.
func DemuxerOptPacketSize(size int) func(*Demuxer) {
	return func(d *Demuxer) {
		switch size {
		case PacketSizeTS, PacketSizeM2TS, PacketSizeRS:
			d.pktSize = size
		}
	}
}

// DemuxerOptPIDs adds PIDs to reassemble sections from, for example
// private section PIDs not announced in a PMT.
func DemuxerOptPIDs(pids ...uint16) func(*Demuxer) {
	return func(d *Demuxer) {
		for _, pid := range pids {
			d.pids.add(pid)
		}
	}
}

// DemuxerOptDedupe drops a section when its bytes are identical to the last
// section seen in the same (PID, table_id, extension, section_number) slot.
// Carousels repeat unchanged tables many times a second.
func DemuxerOptDedupe() func(*Demuxer) {
	return func(d *Demuxer) {
		d.dedupe = true
		d.lastHash = make(map[sectionKey]uint64)
	}
}

// DemuxerOptLogger sets the logger.
func DemuxerOptLogger(l *slog.Logger) func(*Demuxer) {
	return func(d *Demuxer) {
		d.log = l
	}
}

// PIDs returns the section PIDs currently followed, in ascending order.
func (d *Demuxer) PIDs() []uint16 {
	return d.pids.sorted()
}

// NextData returns the next section from the stream. Returns io.EOF when
// all data has been consumed; a section left incomplete at the end of the
// stream is dropped.
func (d *Demuxer) NextData() (*DemuxerData, error) {
	for {
		// Drain buffered results first.
		if len(d.dataBuffer) > 0 {
			data := d.dataBuffer[0]
			d.dataBuffer = d.dataBuffer[1:]
			return data, nil
		}

		if d.eof {
			return nil, io.EOF
		}

		if d.ctx.Err() != nil {
			return nil, d.ctx.Err()
		}

		_, err := io.ReadFull(d.reader, d.readBuf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				d.eof = true
				continue
			}
			return nil, err
		}

		pkt, err := parsePacket(d.packetBytes())
		if err != nil {
			d.log.Debug("skipping corrupt packet", "error", err)
			continue
		}
		if !d.pids.has(pkt.Header.PID) {
			continue
		}

		for _, raw := range d.pool.add(pkt) {
			if data := d.handleSection(pkt.Header.PID, raw); data != nil {
				d.dataBuffer = append(d.dataBuffer, data)
			}
		}
	}
}

func (d *Demuxer) packetBytes() []byte {
	if d.pktSize == PacketSizeM2TS {
		return d.readBuf[4:]
	}
	return d.readBuf[:packetSize]
}

func (d *Demuxer) handleSection(pid uint16, raw []byte) *DemuxerData {
	s, err := psi.ParseSection(raw)
	if err != nil {
		d.log.Debug("rejecting section", "pid", pid, "error", err)
		return &DemuxerData{PID: pid, Err: err}
	}
	if d.dedupe && d.repeated(pid, s) {
		return nil
	}

	switch s.TableID {
	case psi.TableIDPAT, psi.TableIDPMT:
		d.learnPIDs(s)
	}
	return &DemuxerData{PID: pid, Section: s}
}

func (d *Demuxer) repeated(pid uint16, s *psi.Section) bool {
	key := sectionKey{pid: pid, tableID: s.TableID, ext: s.TableIDExtension, number: s.SectionNumber}
	h := xxhash.Sum64(s.Raw)
	if last, ok := d.lastHash[key]; ok && last == h {
		return true
	}
	d.lastHash[key] = h
	return false
}

// learnPIDs follows the PMT PIDs of a PAT and the SCTE-35 PIDs of a PMT.
func (d *Demuxer) learnPIDs(s *psi.Section) {
	t, err := psi.ParseTable(s)
	if err != nil {
		d.log.Debug("unparseable program table", "table_id", s.TableID, "error", err)
		return
	}
	switch t := t.(type) {
	case *psi.PAT:
		if t.NetworkPID != 0 {
			d.pids.add(t.NetworkPID)
		}
		for _, p := range t.Programs {
			if !d.pids.has(p.ProgramMapPID) {
				d.log.Debug("following PMT", "program", p.ProgramNumber, "pid", p.ProgramMapPID)
				d.pids.add(p.ProgramMapPID)
			}
		}
	case *psi.PMT:
		for _, es := range t.Streams {
			if es.StreamType == StreamTypeSCTE35 && !d.pids.has(es.ElementaryPID) {
				d.log.Debug("following SCTE-35 PID", "program", t.ProgramNumber, "pid", es.ElementaryPID)
				d.pids.add(es.ElementaryPID)
			}
		}
	}
}
