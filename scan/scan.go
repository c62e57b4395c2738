// Package scan decodes every descriptor of a transport stream: it
// reassembles sections with the mpegts demuxer, parses the PSI/SI tables
// that carry descriptor loops, and walks each loop against a registry.
// SCTE-35 splice sections are decoded whole with their splice_descriptor
// loop.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zsiec/tsdesc"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/mpegts"
	"github.com/zsiec/tsdesc/psi"
	"github.com/zsiec/tsdesc/scte35"
)

// Result is one decoded section. Err is set when the section could not be
// validated or its table could not be parsed; Loops is then empty.
type Result struct {
	PID     uint16
	Section *psi.Section

	// Table is the parsed table for PSI/SI sections.
	Table psi.Table

	// Splice is the decoded splice_info_section for table_id 0xFC. Its
	// descriptor outcomes are in Splice.Descriptors, not Loops.
	Splice *scte35.SpliceInfoSection

	Loops []LoopResult
	Err   error
}

// LoopResult holds the outcomes of one descriptor loop of a table.
type LoopResult struct {
	Kind     psi.LoopKind
	ID       uint32
	Outcomes []descriptor.Outcome
}

// Stats counts what a Scan call produced.
type Stats struct {
	Sections       int
	Tables         int
	SpliceSections int
	Skipped        int
	Descriptors    int
	Unknown        int
	Errors         int
}

func (st *Stats) addOutcomes(outs []descriptor.Outcome) {
	for _, o := range outs {
		st.Descriptors++
		switch {
		case o.Err != nil:
			st.Errors++
		case isUnknown(o.Record):
			st.Unknown++
		}
	}
}

func isUnknown(r descriptor.Record) bool {
	_, ok := r.(*descriptor.Unknown)
	return ok
}

// Scanner decodes transport streams against a frozen registry. A Scanner
// holds no per-stream state; Scan may be called concurrently.
type Scanner struct {
	std       tsdesc.Standard
	padding   bool
	dedupe    bool
	packet    int
	pids      []uint16
	log       *slog.Logger
	walker    *descriptor.Walker
	atsc      *descriptor.Walker
	isdb      *descriptor.Walker
	splice    *descriptor.Walker
	demuxOpts []func(*mpegts.Demuxer)
}

// ScannerOptStandard selects the descriptor lookup chain for DVB, ISDB or
// MPEG-only streams. ATSC PSIP tables and the ISDB BIT always use their own
// chains. The default is tsdesc.StandardDVB.
func ScannerOptStandard(std tsdesc.Standard) func(*Scanner) {
	return func(s *Scanner) { s.std = std }
}

// ScannerOptPadding lets descriptor loops end in 0xFF stuffing.
func ScannerOptPadding() func(*Scanner) {
	return func(s *Scanner) { s.padding = true }
}

// ScannerOptDedupe skips sections repeated byte for byte by a carousel.
func ScannerOptDedupe() func(*Scanner) {
	return func(s *Scanner) { s.dedupe = true }
}

// ScannerOptPacketSize sets the TS packet size (188, 192 or 204).
func ScannerOptPacketSize(size int) func(*Scanner) {
	return func(s *Scanner) { s.packet = size }
}

// ScannerOptPIDs adds section PIDs that are not announced in the PAT or a
// PMT, such as ATSC EIT PIDs.
func ScannerOptPIDs(pids ...uint16) func(*Scanner) {
	return func(s *Scanner) { s.pids = append(s.pids, pids...) }
}

// ScannerOptLogger sets the logger.
func ScannerOptLogger(l *slog.Logger) func(*Scanner) {
	return func(s *Scanner) { s.log = l }
}

// New returns a Scanner decoding descriptors with reg.
func New(reg *descriptor.Registry, opts ...func(*Scanner)) *Scanner {
	s := &Scanner{std: tsdesc.StandardDVB}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "scanner")

	var wopts []func(*descriptor.Walker)
	if s.padding {
		wopts = append(wopts, descriptor.WalkerOptPadding())
	}
	s.walker = tsdesc.NewWalker(reg, s.std, s.log, wopts...)
	s.atsc = tsdesc.NewWalker(reg, tsdesc.StandardATSC, s.log, wopts...)
	s.isdb = tsdesc.NewWalker(reg, tsdesc.StandardISDB, s.log, wopts...)
	s.splice = scte35.NewWalker(reg, descriptor.WalkerOptLogger(s.log))

	s.demuxOpts = []func(*mpegts.Demuxer){mpegts.DemuxerOptLogger(s.log)}
	if s.dedupe {
		s.demuxOpts = append(s.demuxOpts, mpegts.DemuxerOptDedupe())
	}
	if s.packet != 0 {
		s.demuxOpts = append(s.demuxOpts, mpegts.DemuxerOptPacketSize(s.packet))
	}
	if len(s.pids) > 0 {
		s.demuxOpts = append(s.demuxOpts, mpegts.DemuxerOptPIDs(s.pids...))
	}
	return s
}

// Standard returns the configured standard.
func (s *Scanner) Standard() tsdesc.Standard {
	return s.std
}

// Scan reads the transport stream r until EOF and calls fn for every
// section. A non-nil error from fn stops the scan and is returned.
// Malformed sections and descriptors are reported through Result and do
// not stop the scan.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, fn func(*Result) error) (Stats, error) {
	var st Stats
	dmx := mpegts.NewDemuxer(ctx, r, s.demuxOpts...)
	for {
		data, err := dmx.NextData()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return st, nil
			}
			return st, fmt.Errorf("scan: %w", err)
		}
		st.Sections++

		res := s.decode(data, &st)
		if res == nil {
			st.Skipped++
			continue
		}
		if res.Err != nil {
			st.Errors++
		}
		if err := fn(res); err != nil {
			return st, err
		}
	}
}

// DecodeSection decodes a single section the way Scan does. It returns nil
// for tables that carry no descriptors this package knows how to locate.
func (s *Scanner) DecodeSection(pid uint16, sec *psi.Section) *Result {
	var st Stats
	return s.decode(&mpegts.DemuxerData{PID: pid, Section: sec}, &st)
}

func (s *Scanner) decode(data *mpegts.DemuxerData, st *Stats) *Result {
	res := &Result{PID: data.PID, Section: data.Section, Err: data.Err}
	if data.Err != nil {
		return res
	}
	sec := data.Section

	if sec.TableID == psi.TableIDSpliceInfo {
		sis, err := scte35.Decode(s.splice, sec.Raw)
		res.Splice = sis
		if err != nil {
			res.Err = err
			return res
		}
		st.SpliceSections++
		st.addOutcomes(sis.Descriptors)
		return res
	}

	t, err := psi.ParseTable(sec)
	if err != nil {
		if errors.Is(err, psi.ErrUnsupportedTable) {
			s.log.Debug("skipping table", "pid", data.PID, "table_id", sec.TableID)
			return nil
		}
		res.Err = err
		return res
	}
	st.Tables++
	res.Table = t

	w := s.walkerFor(sec.TableID)
	for _, l := range t.DescriptorLoops() {
		lr := LoopResult{Kind: l.Kind, ID: l.ID, Outcomes: w.Decode(l.Region)}
		st.addOutcomes(lr.Outcomes)
		res.Loops = append(res.Loops, lr)
	}
	return res
}

func (s *Scanner) walkerFor(tableID uint8) *descriptor.Walker {
	switch tableID {
	case psi.TableIDTVCT, psi.TableIDCVCT, psi.TableIDATSCEIT:
		return s.atsc
	case psi.TableIDBIT:
		return s.isdb
	default:
		return s.walker
	}
}
