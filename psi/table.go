package psi

import (
	"fmt"

	"github.com/zsiec/tsdesc/wire"
)

// LoopKind names the position of a descriptor loop within its table.
type LoopKind string

const (
	LoopCA              LoopKind = "ca"
	LoopProgramInfo     LoopKind = "program_info"
	LoopESInfo          LoopKind = "es_info"
	LoopNetwork         LoopKind = "network"
	LoopBouquet         LoopKind = "bouquet"
	LoopTransportStream LoopKind = "transport_stream"
	LoopService         LoopKind = "service"
	LoopEvent           LoopKind = "event"
	LoopTimeOffset      LoopKind = "time_offset"
	LoopBroadcast       LoopKind = "broadcast"
	LoopBroadcaster     LoopKind = "broadcaster"
	LoopChannel         LoopKind = "channel"
	LoopAdditional      LoopKind = "additional"
)

// Loop is a descriptor loop region. ID identifies the entry owning the
// loop (elementary PID, service_id, event_id and so on) and is zero for
// table-level loops. Region aliases the section bytes.
type Loop struct {
	Kind   LoopKind
	ID     uint32
	Region []byte
}

// Table is a parsed PSI/SI table section.
type Table interface {
	TableID() uint8
	DescriptorLoops() []Loop
}

// ParseTable parses the body of s according to its table ID.
func ParseTable(s *Section) (Table, error) {
	tid := s.TableID
	var (
		t   Table
		err error
	)
	switch {
	case tid == TableIDTOT:
		t, err = parseTOT(s)
	case !s.SectionSyntaxIndicator:
		return nil, fmt.Errorf("psi: table 0x%02X in short form: %w", tid, ErrUnsupportedTable)
	case tid == TableIDPAT:
		t, err = parsePAT(s)
	case tid == TableIDCAT:
		t, err = parseCAT(s)
	case tid == TableIDPMT:
		t, err = parsePMT(s)
	case tid == TableIDNITActual, tid == TableIDNITOther:
		t, err = parseNIT(s)
	case tid == TableIDBAT:
		t, err = parseBAT(s)
	case tid == TableIDSDTActual, tid == TableIDSDTOther:
		t, err = parseSDT(s)
	case tid >= TableIDEITFirst && tid <= TableIDEITLast:
		t, err = parseEIT(s)
	case tid == TableIDBIT:
		t, err = parseBIT(s)
	case tid == TableIDTVCT, tid == TableIDCVCT:
		t, err = parseVCT(s)
	case tid == TableIDATSCEIT:
		t, err = parseATSCEIT(s)
	default:
		return nil, fmt.Errorf("psi: table 0x%02X: %w", tid, ErrUnsupportedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("psi: table 0x%02X: %w", tid, err)
	}
	return t, nil
}

// readLoop reads a 16-bit field whose low lenBits bits give the length of
// the descriptor loop that follows.
func readLoop(c *wire.Cursor, lenBits int) ([]byte, error) {
	v, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return c.Slice(int(v & (1<<lenBits - 1)))
}

// PAT is the Program Association Table.
type PAT struct {
	TransportStreamID uint16
	NetworkPID        uint16
	Programs          []PATProgram
}

// PATProgram maps a program number to its PMT PID.
type PATProgram struct {
	ProgramNumber uint16
	ProgramMapPID uint16
}

func (*PAT) TableID() uint8 { return TableIDPAT }

func (*PAT) DescriptorLoops() []Loop { return nil }

func parsePAT(s *Section) (*PAT, error) {
	pat := &PAT{TransportStreamID: s.TableIDExtension}
	c := wire.NewCursor(s.Body)
	for c.Remaining() >= 4 {
		num, _ := c.ReadU16()
		pid, _ := c.ReadU16()
		pid &= 0x1FFF
		if num == 0 {
			pat.NetworkPID = pid
			continue
		}
		pat.Programs = append(pat.Programs, PATProgram{ProgramNumber: num, ProgramMapPID: pid})
	}
	if !c.AtEnd() {
		return nil, fmt.Errorf("PAT has %d stray bytes: %w", c.Remaining(), wire.ErrTruncated)
	}
	return pat, nil
}

// CAT is the Conditional Access Table.
type CAT struct {
	Descriptors []byte
}

func (*CAT) TableID() uint8 { return TableIDCAT }

func (t *CAT) DescriptorLoops() []Loop {
	return []Loop{{Kind: LoopCA, Region: t.Descriptors}}
}

func parseCAT(s *Section) (*CAT, error) {
	return &CAT{Descriptors: s.Body}, nil
}

// PMT is the Program Map Table.
type PMT struct {
	ProgramNumber uint16
	PCRPID        uint16
	ProgramInfo   []byte
	Streams       []PMTStream
}

// PMTStream is one elementary stream entry of a PMT.
type PMTStream struct {
	StreamType    uint8
	ElementaryPID uint16
	ESInfo        []byte
}

func (*PMT) TableID() uint8 { return TableIDPMT }

func (t *PMT) DescriptorLoops() []Loop {
	loops := make([]Loop, 0, 1+len(t.Streams))
	loops = append(loops, Loop{Kind: LoopProgramInfo, ID: uint32(t.ProgramNumber), Region: t.ProgramInfo})
	for _, es := range t.Streams {
		loops = append(loops, Loop{Kind: LoopESInfo, ID: uint32(es.ElementaryPID), Region: es.ESInfo})
	}
	return loops
}

func parsePMT(s *Section) (*PMT, error) {
	c := wire.NewCursor(s.Body)
	pcr, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	pmt := &PMT{ProgramNumber: s.TableIDExtension, PCRPID: pcr & 0x1FFF}
	if pmt.ProgramInfo, err = readLoop(c, 12); err != nil {
		return nil, err
	}
	for !c.AtEnd() {
		st, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		pid, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		info, err := readLoop(c, 12)
		if err != nil {
			return nil, err
		}
		pmt.Streams = append(pmt.Streams, PMTStream{StreamType: st, ElementaryPID: pid & 0x1FFF, ESInfo: info})
	}
	return pmt, nil
}
