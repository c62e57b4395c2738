package scte35

import (
	"fmt"
	"time"

	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/wire"
)

// splice_descriptor_tag values.
const (
	TagAvail        uint8 = 0x00
	TagDTMF         uint8 = 0x01
	TagSegmentation uint8 = 0x02
	TagTime         uint8 = 0x03
)

// CUEIdentifier is the CUEI ASCII identifier (0x43554549).
const CUEIdentifier uint32 = 0x43554549

// Register adds the splice descriptor decoders to reg under
// descriptor.ContextSCTE35.
func Register(reg *descriptor.Registry) error {
	for tag, dec := range map[uint8]descriptor.Decoder{
		TagAvail:        decodeAvail,
		TagDTMF:         decodeDTMF,
		TagSegmentation: decodeSegmentation,
		TagTime:         decodeTime,
	} {
		if err := reg.Register(tag, descriptor.ContextSCTE35, dec); err != nil {
			return err
		}
	}
	return nil
}

func readIdentifier(c *wire.Cursor) error {
	id, err := c.ReadU32()
	if err != nil {
		return err
	}
	if id != CUEIdentifier {
		return fmt.Errorf("%w: 0x%08X", ErrForeignIdentifier, id)
	}
	return nil
}

// AvailDescriptor is an avail_descriptor.
type AvailDescriptor struct {
	ProviderAvailID uint32
}

func (*AvailDescriptor) DescriptorTag() uint8 { return TagAvail }

func decodeAvail(c *wire.Cursor) (descriptor.Record, error) {
	if err := readIdentifier(c); err != nil {
		return nil, err
	}
	id, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	return &AvailDescriptor{ProviderAvailID: id}, nil
}

// DTMFDescriptor is a DTMF_descriptor. Preroll is in tenths of a second.
type DTMFDescriptor struct {
	Preroll uint8
	Chars   string
}

func (*DTMFDescriptor) DescriptorTag() uint8 { return TagDTMF }

func decodeDTMF(c *wire.Cursor) (descriptor.Record, error) {
	if err := readIdentifier(c); err != nil {
		return nil, err
	}
	preroll, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	chars, err := c.ReadString(int(b>>5), charset.Latin1)
	if err != nil {
		return nil, err
	}
	return &DTMFDescriptor{Preroll: preroll, Chars: chars}, nil
}

// TimeDescriptor is a time_descriptor carrying a PTP (TAI) timestamp.
type TimeDescriptor struct {
	TAISeconds     uint64
	TAINanoseconds uint32
	UTCOffset      uint16
}

func (*TimeDescriptor) DescriptorTag() uint8 { return TagTime }

// UTC converts the TAI timestamp to UTC using UTCOffset.
func (td *TimeDescriptor) UTC() time.Time {
	return time.Unix(int64(td.TAISeconds)-int64(td.UTCOffset), int64(td.TAINanoseconds)).UTC()
}

func decodeTime(c *wire.Cursor) (descriptor.Record, error) {
	if err := readIdentifier(c); err != nil {
		return nil, err
	}
	secs, err := c.ReadU48()
	if err != nil {
		return nil, err
	}
	ns, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	off, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return &TimeDescriptor{TAISeconds: secs, TAINanoseconds: ns, UTCOffset: off}, nil
}

// DeliveryRestrictions holds the restriction flags of a segmentation
// descriptor whose delivery_not_restricted_flag is clear.
type DeliveryRestrictions struct {
	WebDeliveryAllowed bool
	NoRegionalBlackout bool
	ArchiveAllowed     bool
	DeviceRestrictions uint8
}

// SegmentationComponent is one component entry of a component-level
// segmentation descriptor.
type SegmentationComponent struct {
	ComponentTag uint8
	PTSOffset    uint64
}

// SegmentationDescriptor carries segmentation information per SCTE-35 10.3.3.
// Fields after SegmentationEventCancelIndicator are zero when the event is
// cancelled.
type SegmentationDescriptor struct {
	SegmentationEventID              uint32
	SegmentationEventCancelIndicator bool
	EventIDCompliance                bool
	ProgramSegmentation              bool
	DeliveryRestrictions             *DeliveryRestrictions
	Components                       []SegmentationComponent
	SegmentationDuration             *uint64
	UPIDType                         uint8
	UPID                             []byte
	SegmentationTypeID               SegmentationType
	SegmentNum                       uint8
	SegmentsExpected                 uint8
	SubSegmentNum                    *uint8
	SubSegmentsExpected              *uint8
}

func (*SegmentationDescriptor) DescriptorTag() uint8 { return TagSegmentation }

// Name returns a human-readable name for the segmentation type.
func (sd *SegmentationDescriptor) Name() string {
	return sd.SegmentationTypeID.String()
}

func decodeSegmentation(c *wire.Cursor) (descriptor.Record, error) {
	if err := readIdentifier(c); err != nil {
		return nil, err
	}
	sd := &SegmentationDescriptor{}
	var err error
	if sd.SegmentationEventID, err = c.ReadU32(); err != nil {
		return nil, err
	}
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	sd.SegmentationEventCancelIndicator = b&0x80 != 0
	sd.EventIDCompliance = b&0x40 != 0
	if sd.SegmentationEventCancelIndicator {
		return sd, nil
	}

	if b, err = c.ReadU8(); err != nil {
		return nil, err
	}
	sd.ProgramSegmentation = b&0x80 != 0
	hasDuration := b&0x40 != 0
	if b&0x20 == 0 {
		sd.DeliveryRestrictions = &DeliveryRestrictions{
			WebDeliveryAllowed: b&0x10 != 0,
			NoRegionalBlackout: b&0x08 != 0,
			ArchiveAllowed:     b&0x04 != 0,
			DeviceRestrictions: b & 0x03,
		}
	}

	if !sd.ProgramSegmentation {
		count, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		if int(count)*6 > c.Remaining() {
			return nil, descriptor.Malformed("%d components need %d bytes, have %d", count, int(count)*6, c.Remaining())
		}
		sd.Components = make([]SegmentationComponent, count)
		for i := range sd.Components {
			tag, _ := c.ReadU8()
			v, _ := c.ReadU40()
			sd.Components[i] = SegmentationComponent{ComponentTag: tag, PTSOffset: v & 0x1FFFFFFFF}
		}
	}

	if hasDuration {
		d, err := c.ReadU40()
		if err != nil {
			return nil, err
		}
		sd.SegmentationDuration = &d
	}

	if sd.UPIDType, err = c.ReadU8(); err != nil {
		return nil, err
	}
	n, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	if sd.UPID, err = c.ReadBytes(int(n)); err != nil {
		return nil, err
	}

	hdr, err := c.Peek(3)
	if err != nil {
		return nil, err
	}
	c.Skip(3)
	sd.SegmentationTypeID = SegmentationType(hdr[0])
	sd.SegmentNum = hdr[1]
	sd.SegmentsExpected = hdr[2]

	// Encoders predating the sub-segment fields omit them.
	if sd.SegmentationTypeID.HasSubSegments() && c.Remaining() >= 2 {
		num, _ := c.ReadU8()
		expected, _ := c.ReadU8()
		sd.SubSegmentNum = &num
		sd.SubSegmentsExpected = &expected
	}
	return sd, nil
}
