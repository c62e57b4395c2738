package atsc

import (
	"fmt"

	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/wire"
)

// AC3Audio is the AC-3 audio_stream_descriptor of A/52 Annex A. Fields
// after the first three bytes are kept in Additional.
type AC3Audio struct {
	SampleRateCode uint8
	BSID           uint8
	BitRateCode    uint8
	SurroundMode   uint8
	BSMod          uint8
	NumChannels    uint8
	FullService    bool
	Additional     []byte
}

func (*AC3Audio) DescriptorTag() uint8 { return TagAC3Audio }

func decodeAC3Audio(c *wire.Cursor) (descriptor.Record, error) {
	r, err := c.Bits(3)
	if err != nil {
		return nil, err
	}
	d := &AC3Audio{
		SampleRateCode: uint8(r.Uint32(3)),
		BSID:           uint8(r.Uint32(5)),
		BitRateCode:    uint8(r.Uint32(6)),
		SurroundMode:   uint8(r.Uint32(2)),
		BSMod:          uint8(r.Uint32(3)),
		NumChannels:    uint8(r.Uint32(4)),
		FullService:    r.Bit(),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !c.AtEnd() {
		d.Additional = c.ReadRest()
	}
	return d, nil
}

// CaptionService describes one caption service. ServiceNumber is set for
// digital (CEA-708) services and Line21Field for analog ones.
type CaptionService struct {
	Language        string
	DigitalCC       bool
	ServiceNumber   uint8
	Line21Field     bool
	EasyReader      bool
	WideAspectRatio bool
}

// CaptionServices is the caption_service_descriptor.
type CaptionServices struct {
	Services []CaptionService
}

func (*CaptionServices) DescriptorTag() uint8 { return TagCaptionService }

func decodeCaptionService(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	n, err := descriptor.Chunks(c, 6)
	if err != nil {
		return nil, err
	}
	if want := int(b & 0x1F); n != want {
		return nil, descriptor.Malformed("%d caption services declared, %d present", want, n)
	}
	d := &CaptionServices{Services: make([]CaptionService, 0, n)}
	for range n {
		lang, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		f, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		flags, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		s := CaptionService{
			Language:        lang,
			DigitalCC:       f&0x80 != 0,
			EasyReader:      flags&0x8000 != 0,
			WideAspectRatio: flags&0x4000 != 0,
		}
		if s.DigitalCC {
			s.ServiceNumber = f & 0x3F
		} else {
			s.Line21Field = f&0x01 != 0
		}
		d.Services = append(d.Services, s)
	}
	return d, nil
}

// RatingValue is the value given on one rating dimension.
type RatingValue struct {
	Dimension uint8
	Value     uint8
}

// RatingRegion holds the ratings of one rating region.
type RatingRegion struct {
	Region      uint8
	Values      []RatingValue
	Description MultipleString
}

// ContentAdvisory is the content_advisory_descriptor.
type ContentAdvisory struct {
	Regions []RatingRegion
}

func (*ContentAdvisory) DescriptorTag() uint8 { return TagContentAdvisory }

func decodeContentAdvisory(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	n := int(b & 0x3F)
	// rating_region, rated_dimensions and the description length.
	if n*3 > c.Remaining() {
		return nil, fmt.Errorf("atsc: %d rating regions in %d bytes: %w", n, c.Remaining(), wire.ErrTruncated)
	}
	d := &ContentAdvisory{Regions: make([]RatingRegion, 0, n)}
	for range n {
		rr, err := readRatingRegion(c)
		if err != nil {
			return nil, err
		}
		d.Regions = append(d.Regions, rr)
	}
	return d, nil
}

func readRatingRegion(c *wire.Cursor) (RatingRegion, error) {
	var rr RatingRegion
	region, err := c.ReadU8()
	if err != nil {
		return rr, err
	}
	dims, err := c.ReadU8()
	if err != nil {
		return rr, err
	}
	vals, err := c.Sub(int(dims) * 2)
	if err != nil {
		return rr, err
	}
	rr.Region = region
	rr.Values = make([]RatingValue, 0, dims)
	for range dims {
		dim, _ := vals.ReadU8()
		v, _ := vals.ReadU8()
		rr.Values = append(rr.Values, RatingValue{Dimension: dim, Value: v & 0x0F})
	}
	desc, err := descriptor.LengthPrefixed(c)
	if err != nil {
		return rr, err
	}
	if !desc.AtEnd() {
		if rr.Description, err = ReadMultipleString(desc); err != nil {
			return rr, err
		}
		if !desc.AtEnd() {
			return rr, descriptor.Malformed("%d bytes after rating description", desc.Remaining())
		}
	}
	return rr, nil
}

// ExtendedChannelName is the extended_channel_name_descriptor.
type ExtendedChannelName struct {
	Name MultipleString
}

func (*ExtendedChannelName) DescriptorTag() uint8 { return TagExtendedChannelName }

func decodeExtendedChannelName(c *wire.Cursor) (descriptor.Record, error) {
	m, err := ReadMultipleString(c)
	if err != nil {
		return nil, err
	}
	return &ExtendedChannelName{Name: m}, nil
}

// ServiceElement is one elementary stream of a service_location_descriptor.
type ServiceElement struct {
	StreamType uint8
	PID        uint16
	Language   string
}

// ServiceLocation is the service_location_descriptor.
type ServiceLocation struct {
	PCRPID   uint16
	Elements []ServiceElement
}

func (*ServiceLocation) DescriptorTag() uint8 { return TagServiceLocation }

func decodeServiceLocation(c *wire.Cursor) (descriptor.Record, error) {
	pcr, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	count, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	n, err := descriptor.Chunks(c, 6)
	if err != nil {
		return nil, err
	}
	if n != int(count) {
		return nil, descriptor.Malformed("%d elements declared, %d present", count, n)
	}
	d := &ServiceLocation{PCRPID: pcr & 0x1FFF, Elements: make([]ServiceElement, 0, n)}
	for range n {
		st, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		pid, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		lang, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		d.Elements = append(d.Elements, ServiceElement{StreamType: st, PID: pid & 0x1FFF, Language: lang})
	}
	return d, nil
}

// ComponentName is the component_name_descriptor.
type ComponentName struct {
	Name MultipleString
}

func (*ComponentName) DescriptorTag() uint8 { return TagComponentName }

func decodeComponentName(c *wire.Cursor) (descriptor.Record, error) {
	m, err := ReadMultipleString(c)
	if err != nil {
		return nil, err
	}
	return &ComponentName{Name: m}, nil
}
