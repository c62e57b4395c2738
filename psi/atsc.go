package psi

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/zsiec/tsdesc/atsc"
	"github.com/zsiec/tsdesc/wire"
)

// GPSEpoch is the origin of ATSC system time.
var GPSEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// VCT is an ATSC terrestrial or cable Virtual Channel Table.
type VCT struct {
	ID                    uint8
	TransportStreamID     uint16
	ProtocolVersion       uint8
	Channels              []VirtualChannel
	AdditionalDescriptors []byte
}

// VirtualChannel is one channel entry of a VCT.
type VirtualChannel struct {
	ShortName          string
	MajorChannelNumber uint16
	MinorChannelNumber uint16
	ModulationMode     uint8
	CarrierFrequency   uint32
	ChannelTSID        uint16
	ProgramNumber      uint16
	ETMLocation        uint8
	AccessControlled   bool
	Hidden             bool
	HideGuide          bool
	ServiceType        uint8
	SourceID           uint16
	Descriptors        []byte
}

func (t *VCT) TableID() uint8 { return t.ID }

func (t *VCT) DescriptorLoops() []Loop {
	loops := make([]Loop, 0, len(t.Channels)+1)
	for _, ch := range t.Channels {
		loops = append(loops, Loop{Kind: LoopChannel, ID: uint32(ch.SourceID), Region: ch.Descriptors})
	}
	return append(loops, Loop{Kind: LoopAdditional, Region: t.AdditionalDescriptors})
}

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func parseVCT(s *Section) (*VCT, error) {
	c := wire.NewCursor(s.Body)
	pv, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	n, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	const fixed = 32
	if int(n)*fixed > c.Remaining() {
		return nil, fmt.Errorf("%d channels in %d bytes: %w", n, c.Remaining(), wire.ErrTruncated)
	}
	vct := &VCT{ID: s.TableID, TransportStreamID: s.TableIDExtension, ProtocolVersion: pv,
		Channels: make([]VirtualChannel, 0, n)}
	for i := range int(n) {
		ch, err := readVirtualChannel(c)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		vct.Channels = append(vct.Channels, ch)
	}
	if vct.AdditionalDescriptors, err = readLoop(c, 10); err != nil {
		return nil, err
	}
	return vct, nil
}

func readVirtualChannel(c *wire.Cursor) (VirtualChannel, error) {
	var ch VirtualChannel
	name, err := c.Slice(14)
	if err != nil {
		return ch, err
	}
	if raw, err := utf16be.NewDecoder().Bytes(name); err == nil {
		ch.ShortName = strings.TrimRight(string(raw), "\x00")
	}
	r, err := c.Bits(16)
	if err != nil {
		return ch, err
	}
	r.Skip(4)
	ch.MajorChannelNumber = uint16(r.Uint32(10))
	ch.MinorChannelNumber = uint16(r.Uint32(10))
	ch.ModulationMode = uint8(r.Uint32(8))
	ch.CarrierFrequency = r.Uint32(32)
	ch.ChannelTSID = uint16(r.Uint32(16))
	ch.ProgramNumber = uint16(r.Uint32(16))
	ch.ETMLocation = uint8(r.Uint32(2))
	ch.AccessControlled = r.Bit()
	ch.Hidden = r.Bit()
	r.Skip(2) // path_select, out_of_band (cable only)
	ch.HideGuide = r.Bit()
	r.Skip(3)
	ch.ServiceType = uint8(r.Uint32(6))
	ch.SourceID = uint16(r.Uint32(16))
	if ch.Descriptors, err = readLoop(c, 10); err != nil {
		return ch, err
	}
	return ch, nil
}

// ATSCEIT is an ATSC A/65 Event Information Table section.
type ATSCEIT struct {
	SourceID        uint16
	ProtocolVersion uint8
	Events          []ATSCEvent
}

// ATSCEvent is one event entry of an ATSC EIT.
type ATSCEvent struct {
	EventID      uint16
	StartTimeGPS uint32
	ETMLocation  uint8
	Length       time.Duration
	Title        atsc.MultipleString
	Descriptors  []byte
}

// Start converts the GPS start time to UTC given the GPS_UTC_offset from
// the System Time Table.
func (ev *ATSCEvent) Start(gpsUTCOffset uint8) time.Time {
	return GPSEpoch.Add(time.Duration(ev.StartTimeGPS)*time.Second - time.Duration(gpsUTCOffset)*time.Second)
}

func (*ATSCEIT) TableID() uint8 { return TableIDATSCEIT }

func (t *ATSCEIT) DescriptorLoops() []Loop {
	loops := make([]Loop, 0, len(t.Events))
	for _, ev := range t.Events {
		loops = append(loops, Loop{Kind: LoopEvent, ID: uint32(ev.EventID), Region: ev.Descriptors})
	}
	return loops
}

func parseATSCEIT(s *Section) (*ATSCEIT, error) {
	c := wire.NewCursor(s.Body)
	pv, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	n, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	eit := &ATSCEIT{SourceID: s.TableIDExtension, ProtocolVersion: pv}
	for i := range int(n) {
		ev, err := readATSCEvent(c)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		eit.Events = append(eit.Events, ev)
	}
	return eit, nil
}

func readATSCEvent(c *wire.Cursor) (ATSCEvent, error) {
	var ev ATSCEvent
	r, err := c.Bits(10)
	if err != nil {
		return ev, err
	}
	r.Skip(2)
	ev.EventID = uint16(r.Uint32(14))
	ev.StartTimeGPS = r.Uint32(32)
	r.Skip(2)
	ev.ETMLocation = uint8(r.Uint32(2))
	ev.Length = time.Duration(r.Uint32(20)) * time.Second
	titleLen := int(r.Uint32(8))
	title, err := c.Sub(titleLen)
	if err != nil {
		return ev, err
	}
	if titleLen > 0 {
		if ev.Title, err = atsc.ReadMultipleString(title); err != nil {
			return ev, fmt.Errorf("title: %w", err)
		}
	}
	if ev.Descriptors, err = readLoop(c, 12); err != nil {
		return ev, err
	}
	return ev, nil
}
