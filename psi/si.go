package psi

import (
	"fmt"
	"time"

	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/wire"
)

// NIT is the Network Information Table (actual or other network).
type NIT struct {
	ID               uint8
	NetworkID        uint16
	Descriptors      []byte
	TransportStreams []TransportStream
}

// TransportStream is one transport stream entry of a NIT or BAT.
type TransportStream struct {
	TransportStreamID uint16
	OriginalNetworkID uint16
	Descriptors       []byte
}

func (t *NIT) TableID() uint8 { return t.ID }

func (t *NIT) DescriptorLoops() []Loop {
	return append([]Loop{{Kind: LoopNetwork, ID: uint32(t.NetworkID), Region: t.Descriptors}},
		transportStreamLoops(t.TransportStreams)...)
}

// BAT is the Bouquet Association Table.
type BAT struct {
	BouquetID        uint16
	Descriptors      []byte
	TransportStreams []TransportStream
}

func (*BAT) TableID() uint8 { return TableIDBAT }

func (t *BAT) DescriptorLoops() []Loop {
	return append([]Loop{{Kind: LoopBouquet, ID: uint32(t.BouquetID), Region: t.Descriptors}},
		transportStreamLoops(t.TransportStreams)...)
}

func transportStreamLoops(ts []TransportStream) []Loop {
	loops := make([]Loop, 0, len(ts))
	for _, e := range ts {
		loops = append(loops, Loop{Kind: LoopTransportStream, ID: uint32(e.TransportStreamID), Region: e.Descriptors})
	}
	return loops
}

// readNetworkLoops reads the layout shared by NIT and BAT: a first
// descriptor loop followed by a length-prefixed transport stream loop.
func readNetworkLoops(body []byte) ([]byte, []TransportStream, error) {
	c := wire.NewCursor(body)
	first, err := readLoop(c, 12)
	if err != nil {
		return nil, nil, err
	}
	n, err := c.ReadU16()
	if err != nil {
		return nil, nil, err
	}
	tc, err := c.Sub(int(n & 0x0FFF))
	if err != nil {
		return nil, nil, err
	}
	var streams []TransportStream
	for !tc.AtEnd() {
		var ts TransportStream
		if ts.TransportStreamID, err = tc.ReadU16(); err != nil {
			return nil, nil, err
		}
		if ts.OriginalNetworkID, err = tc.ReadU16(); err != nil {
			return nil, nil, err
		}
		if ts.Descriptors, err = readLoop(tc, 12); err != nil {
			return nil, nil, err
		}
		streams = append(streams, ts)
	}
	return first, streams, nil
}

func parseNIT(s *Section) (*NIT, error) {
	first, streams, err := readNetworkLoops(s.Body)
	if err != nil {
		return nil, err
	}
	return &NIT{ID: s.TableID, NetworkID: s.TableIDExtension, Descriptors: first, TransportStreams: streams}, nil
}

func parseBAT(s *Section) (*BAT, error) {
	first, streams, err := readNetworkLoops(s.Body)
	if err != nil {
		return nil, err
	}
	return &BAT{BouquetID: s.TableIDExtension, Descriptors: first, TransportStreams: streams}, nil
}

// SDT is the Service Description Table.
type SDT struct {
	ID                uint8
	TransportStreamID uint16
	OriginalNetworkID uint16
	Services          []SDTService
}

// SDTService is one service entry of an SDT.
type SDTService struct {
	ServiceID           uint16
	EITSchedule         bool
	EITPresentFollowing bool
	RunningStatus       uint8
	FreeCAMode          bool
	Descriptors         []byte
}

func (t *SDT) TableID() uint8 { return t.ID }

func (t *SDT) DescriptorLoops() []Loop {
	loops := make([]Loop, 0, len(t.Services))
	for _, svc := range t.Services {
		loops = append(loops, Loop{Kind: LoopService, ID: uint32(svc.ServiceID), Region: svc.Descriptors})
	}
	return loops
}

func parseSDT(s *Section) (*SDT, error) {
	c := wire.NewCursor(s.Body)
	onid, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	if err := c.Skip(1); err != nil {
		return nil, err
	}
	sdt := &SDT{ID: s.TableID, TransportStreamID: s.TableIDExtension, OriginalNetworkID: onid}
	for !c.AtEnd() {
		id, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		flags, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		status, err := c.Peek(1)
		if err != nil {
			return nil, err
		}
		desc, err := readLoop(c, 12)
		if err != nil {
			return nil, err
		}
		sdt.Services = append(sdt.Services, SDTService{
			ServiceID:           id,
			EITSchedule:         flags&0x02 != 0,
			EITPresentFollowing: flags&0x01 != 0,
			RunningStatus:       status[0] >> 5,
			FreeCAMode:          status[0]&0x10 != 0,
			Descriptors:         desc,
		})
	}
	return sdt, nil
}

// EIT is a DVB or ISDB Event Information Table section.
type EIT struct {
	ID                       uint8
	ServiceID                uint16
	TransportStreamID        uint16
	OriginalNetworkID        uint16
	SegmentLastSectionNumber uint8
	LastTableID              uint8
	Events                   []Event
}

// Event is one event entry of an EIT. StartTime and Duration are nil when
// the wire value is all ones (undefined, used by ISDB for undecided times).
type Event struct {
	EventID       uint16
	StartTime     *time.Time
	Duration      *time.Duration
	RunningStatus uint8
	FreeCAMode    bool
	Descriptors   []byte
}

func (t *EIT) TableID() uint8 { return t.ID }

func (t *EIT) DescriptorLoops() []Loop {
	loops := make([]Loop, 0, len(t.Events))
	for _, ev := range t.Events {
		loops = append(loops, Loop{Kind: LoopEvent, ID: uint32(ev.EventID), Region: ev.Descriptors})
	}
	return loops
}

func parseEIT(s *Section) (*EIT, error) {
	c := wire.NewCursor(s.Body)
	r, err := c.Bits(6)
	if err != nil {
		return nil, err
	}
	eit := &EIT{
		ID:                       s.TableID,
		ServiceID:                s.TableIDExtension,
		TransportStreamID:        uint16(r.Uint32(16)),
		OriginalNetworkID:        uint16(r.Uint32(16)),
		SegmentLastSectionNumber: uint8(r.Uint32(8)),
		LastTableID:              uint8(r.Uint32(8)),
	}
	for !c.AtEnd() {
		ev, err := readEvent(c)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", len(eit.Events), err)
		}
		eit.Events = append(eit.Events, ev)
	}
	return eit, nil
}

func readEvent(c *wire.Cursor) (Event, error) {
	var ev Event
	var err error
	if ev.EventID, err = c.ReadU16(); err != nil {
		return ev, err
	}
	start, err := c.ReadU40()
	if err != nil {
		return ev, err
	}
	if start != descriptor.UndefinedUTCTime {
		t, err := descriptor.UTCTime(start)
		if err != nil {
			return ev, fmt.Errorf("start_time: %w", err)
		}
		ev.StartTime = &t
	}
	dur, err := c.ReadU24()
	if err != nil {
		return ev, err
	}
	if dur != 0xFFFFFF {
		d, err := descriptor.BCDDuration(dur)
		if err != nil {
			return ev, fmt.Errorf("duration: %w", err)
		}
		ev.Duration = &d
	}
	status, err := c.Peek(1)
	if err != nil {
		return ev, err
	}
	ev.RunningStatus = status[0] >> 5
	ev.FreeCAMode = status[0]&0x10 != 0
	if ev.Descriptors, err = readLoop(c, 12); err != nil {
		return ev, err
	}
	return ev, nil
}

// TOT is the Time Offset Table.
type TOT struct {
	UTCTime     time.Time
	Descriptors []byte
}

func (*TOT) TableID() uint8 { return TableIDTOT }

func (t *TOT) DescriptorLoops() []Loop {
	return []Loop{{Kind: LoopTimeOffset, Region: t.Descriptors}}
}

func parseTOT(s *Section) (*TOT, error) {
	c := wire.NewCursor(s.Body)
	v, err := c.ReadU40()
	if err != nil {
		return nil, err
	}
	utc, err := descriptor.UTCTime(v)
	if err != nil {
		return nil, fmt.Errorf("UTC_time: %w", err)
	}
	desc, err := readLoop(c, 12)
	if err != nil {
		return nil, err
	}
	return &TOT{UTCTime: utc, Descriptors: desc}, nil
}

// BIT is the ISDB Broadcaster Information Table.
type BIT struct {
	OriginalNetworkID      uint16
	BroadcastViewPropriety bool
	Descriptors            []byte
	Broadcasters           []Broadcaster
}

// Broadcaster is one broadcaster entry of a BIT.
type Broadcaster struct {
	BroadcasterID uint8
	Descriptors   []byte
}

func (*BIT) TableID() uint8 { return TableIDBIT }

func (t *BIT) DescriptorLoops() []Loop {
	loops := make([]Loop, 0, 1+len(t.Broadcasters))
	loops = append(loops, Loop{Kind: LoopBroadcast, ID: uint32(t.OriginalNetworkID), Region: t.Descriptors})
	for _, b := range t.Broadcasters {
		loops = append(loops, Loop{Kind: LoopBroadcaster, ID: uint32(b.BroadcasterID), Region: b.Descriptors})
	}
	return loops
}

func parseBIT(s *Section) (*BIT, error) {
	c := wire.NewCursor(s.Body)
	hdr, err := c.Peek(1)
	if err != nil {
		return nil, err
	}
	first, err := readLoop(c, 12)
	if err != nil {
		return nil, err
	}
	bit := &BIT{
		OriginalNetworkID:      s.TableIDExtension,
		BroadcastViewPropriety: hdr[0]&0x10 != 0,
		Descriptors:            first,
	}
	for !c.AtEnd() {
		id, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		desc, err := readLoop(c, 12)
		if err != nil {
			return nil, err
		}
		bit.Broadcasters = append(bit.Broadcasters, Broadcaster{BroadcasterID: id, Descriptors: desc})
	}
	return bit, nil
}
