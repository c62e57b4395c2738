package isdb

import (
	"fmt"
	"time"

	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/wire"
)

// ProgramPattern is the broadcast regularity of a series.
type ProgramPattern uint8

// Lumped series air several episodes in one day; split series break one
// long program over several events.
const (
	PatternIrregular ProgramPattern = iota
	PatternSlot
	PatternWeekly
	PatternMonthly
	PatternLumped
	PatternSplit
)

func (p ProgramPattern) String() string {
	switch p {
	case PatternIrregular:
		return "irregular"
	case PatternSlot:
		return "slot"
	case PatternWeekly:
		return "weekly"
	case PatternMonthly:
		return "monthly"
	case PatternLumped:
		return "lumped"
	case PatternSplit:
		return "split"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(p))
	}
}

// EventSeries is the series_descriptor. RepeatLabel is zero for the first
// run; ExpireDate is nil while the end of the series is undecided.
type EventSeries struct {
	SeriesID          uint16
	RepeatLabel       uint8
	ProgramPattern    ProgramPattern
	ExpireDate        *time.Time
	EpisodeNumber     uint16
	LastEpisodeNumber uint16
	SeriesName        string
}

func (*EventSeries) DescriptorTag() uint8 { return TagSeries }

func decodeEventSeries(c *wire.Cursor) (descriptor.Record, error) {
	id, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	expire, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	ep, err := c.ReadU24()
	if err != nil {
		return nil, err
	}
	name, err := c.ReadString(c.Remaining(), charset.ARIB)
	if err != nil {
		return nil, err
	}
	s := &EventSeries{
		SeriesID:          id,
		RepeatLabel:       b >> 4,
		ProgramPattern:    ProgramPattern((b >> 1) & 0x07),
		EpisodeNumber:     uint16(ep >> 12),
		LastEpisodeNumber: uint16(ep & 0x0FFF),
		SeriesName:        name,
	}
	if b&0x01 != 0 {
		d := descriptor.DateFromMJD(expire)
		s.ExpireDate = &d
	}
	return s, nil
}

// GroupType is the relation an event group expresses.
type GroupType uint8

const (
	GroupShared            GroupType = 1 // one event shared by several services
	GroupRelayedToInternal GroupType = 2
	GroupMovedFromInternal GroupType = 3
	GroupRelayedTo         GroupType = 4 // relay to another network
	GroupMovedFrom         GroupType = 5
)

func (g GroupType) String() string {
	switch g {
	case GroupShared:
		return "shared"
	case GroupRelayedToInternal:
		return "relayed_to_internal"
	case GroupMovedFromInternal:
		return "moved_from_internal"
	case GroupRelayedTo:
		return "relayed_to"
	case GroupMovedFrom:
		return "moved_from"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(g))
	}
}

// CrossNetwork reports whether references of this group carry the
// original network and transport stream of the other event.
func (g GroupType) CrossNetwork() bool {
	return g == GroupRelayedTo || g == GroupMovedFrom
}

// EventRef identifies an event. OriginalNetworkID and TransportStreamID
// are set exactly when the group type is cross-network.
type EventRef struct {
	OriginalNetworkID *uint16
	TransportStreamID *uint16
	ServiceID         uint16
	EventID           uint16
}

// EventGroup is the event_group_descriptor. Events are in wire order.
// EventCount is the 4-bit count carried on the wire; Events is sized from
// the payload length.
type EventGroup struct {
	GroupType  GroupType
	EventCount uint8
	Events     []EventRef
}

func (*EventGroup) DescriptorTag() uint8 { return TagEventGroup }

func decodeEventGroup(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	gt := GroupType(b >> 4)
	size := 4
	if gt.CrossNetwork() {
		size = 8
	}
	n, err := descriptor.Chunks(c, size)
	if err != nil {
		return nil, err
	}
	g := &EventGroup{GroupType: gt, EventCount: b & 0x0F, Events: make([]EventRef, 0, n)}
	for range n {
		var ref EventRef
		if gt.CrossNetwork() {
			onid, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			tsid, err := c.ReadU16()
			if err != nil {
				return nil, err
			}
			ref.OriginalNetworkID, ref.TransportStreamID = &onid, &tsid
		}
		if ref.ServiceID, err = c.ReadU16(); err != nil {
			return nil, err
		}
		if ref.EventID, err = c.ReadU16(); err != nil {
			return nil, err
		}
		g.Events = append(g.Events, ref)
	}
	return g, nil
}
