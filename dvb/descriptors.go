package dvb

import (
	"time"

	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/wire"
)

// readText reads an 8-bit length followed by that many bytes of text.
func readText(c *wire.Cursor, text charset.Decoder) (string, error) {
	n, err := c.ReadU8()
	if err != nil {
		return "", err
	}
	return c.ReadString(int(n), text)
}

// NetworkName is the network_name_descriptor.
type NetworkName struct {
	Name string
}

func (*NetworkName) DescriptorTag() uint8 { return TagNetworkName }

func decodeNetworkName(text charset.Decoder) descriptor.Decoder {
	return func(c *wire.Cursor) (descriptor.Record, error) {
		s, err := c.ReadString(c.Remaining(), text)
		if err != nil {
			return nil, err
		}
		return &NetworkName{Name: s}, nil
	}
}

// Service types.
const (
	ServiceTypeDigitalTV    uint8 = 0x01
	ServiceTypeDigitalRadio uint8 = 0x02
	ServiceTypeTeletext     uint8 = 0x03
	ServiceTypeData         uint8 = 0x0C
	ServiceTypeAVCHDTV      uint8 = 0x19
)

// Service is the service_descriptor.
type Service struct {
	ServiceType  uint8
	ProviderName string
	ServiceName  string
}

func (*Service) DescriptorTag() uint8 { return TagService }

func decodeService(text charset.Decoder) descriptor.Decoder {
	return func(c *wire.Cursor) (descriptor.Record, error) {
		st, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		provider, err := readText(c, text)
		if err != nil {
			return nil, err
		}
		name, err := readText(c, text)
		if err != nil {
			return nil, err
		}
		return &Service{ServiceType: st, ProviderName: provider, ServiceName: name}, nil
	}
}

// ShortEvent is the short_event_descriptor.
type ShortEvent struct {
	Language  string
	EventName string
	Text      string
}

func (*ShortEvent) DescriptorTag() uint8 { return TagShortEvent }

func decodeShortEvent(text charset.Decoder) descriptor.Decoder {
	return func(c *wire.Cursor) (descriptor.Record, error) {
		lang, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		name, err := readText(c, text)
		if err != nil {
			return nil, err
		}
		body, err := readText(c, text)
		if err != nil {
			return nil, err
		}
		return &ShortEvent{Language: lang, EventName: name, Text: body}, nil
	}
}

// ExtendedEventItem is one description/value pair of an extended event.
type ExtendedEventItem struct {
	Description string
	Item        string
}

// ExtendedEvent is the extended_event_descriptor. Long texts are split
// over several descriptors numbered 0..LastNumber.
type ExtendedEvent struct {
	Number     uint8
	LastNumber uint8
	Language   string
	Items      []ExtendedEventItem
	Text       string
}

func (*ExtendedEvent) DescriptorTag() uint8 { return TagExtendedEvent }

func decodeExtendedEvent(text charset.Decoder) descriptor.Decoder {
	return func(c *wire.Cursor) (descriptor.Record, error) {
		b, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		lang, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		loop, err := descriptor.LengthPrefixed(c)
		if err != nil {
			return nil, err
		}
		var items []ExtendedEventItem
		for !loop.AtEnd() {
			desc, err := readText(loop, text)
			if err != nil {
				return nil, err
			}
			item, err := readText(loop, text)
			if err != nil {
				return nil, err
			}
			items = append(items, ExtendedEventItem{Description: desc, Item: item})
		}
		body, err := readText(c, text)
		if err != nil {
			return nil, err
		}
		return &ExtendedEvent{
			Number:     b >> 4,
			LastNumber: b & 0x0F,
			Language:   lang,
			Items:      items,
			Text:       body,
		}, nil
	}
}

// Component is the component_descriptor.
type Component struct {
	StreamContentExt uint8
	StreamContent    uint8
	ComponentType    uint8
	ComponentTag     uint8
	Language         string
	Text             string
}

func (*Component) DescriptorTag() uint8 { return TagComponent }

func decodeComponent(text charset.Decoder) descriptor.Decoder {
	return func(c *wire.Cursor) (descriptor.Record, error) {
		b, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		ct, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		tag, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		lang, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		s, err := c.ReadString(c.Remaining(), text)
		if err != nil {
			return nil, err
		}
		return &Component{
			StreamContentExt: b >> 4,
			StreamContent:    b & 0x0F,
			ComponentType:    ct,
			ComponentTag:     tag,
			Language:         lang,
			Text:             s,
		}, nil
	}
}

// StreamIdentifier is the stream_identifier_descriptor, linking an
// elementary stream to component descriptors in the EIT.
type StreamIdentifier struct {
	ComponentTag uint8
}

func (*StreamIdentifier) DescriptorTag() uint8 { return TagStreamIdentifier }

func decodeStreamIdentifier(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	return &StreamIdentifier{ComponentTag: b}, nil
}

// Genre is one classification of a content_descriptor.
type Genre struct {
	Level1 uint8
	Level2 uint8
	User   uint8
}

// Content is the content_descriptor.
type Content struct {
	Genres []Genre
}

func (*Content) DescriptorTag() uint8 { return TagContent }

func decodeContent(c *wire.Cursor) (descriptor.Record, error) {
	n, err := descriptor.Chunks(c, 2)
	if err != nil {
		return nil, err
	}
	d := &Content{Genres: make([]Genre, 0, n)}
	for range n {
		v, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		d.Genres = append(d.Genres, Genre{
			Level1: uint8(v >> 12),
			Level2: uint8(v>>8) & 0x0F,
			User:   uint8(v),
		})
	}
	return d, nil
}

// Rating is the rating for one country.
type Rating struct {
	Country string
	Rating  uint8
}

// MinimumAge returns the minimum viewer age, or 0 when the rating is
// undefined or broadcaster-defined.
func (r Rating) MinimumAge() int {
	if r.Rating >= 0x01 && r.Rating <= 0x0F {
		return int(r.Rating) + 3
	}
	return 0
}

// ParentalRating is the parental_rating_descriptor.
type ParentalRating struct {
	Ratings []Rating
}

func (*ParentalRating) DescriptorTag() uint8 { return TagParentalRating }

func decodeParentalRating(c *wire.Cursor) (descriptor.Record, error) {
	n, err := descriptor.Chunks(c, 4)
	if err != nil {
		return nil, err
	}
	d := &ParentalRating{Ratings: make([]Rating, 0, n)}
	for range n {
		country, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		r, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		d.Ratings = append(d.Ratings, Rating{Country: country, Rating: r})
	}
	return d, nil
}

// TimeOffset is one region of a local_time_offset_descriptor. Offsets are
// signed: negative west of Greenwich.
type TimeOffset struct {
	Country    string
	RegionID   uint8
	Offset     time.Duration
	ChangeTime time.Time
	NextOffset time.Duration
}

// LocalTimeOffset is the local_time_offset_descriptor.
type LocalTimeOffset struct {
	Offsets []TimeOffset
}

func (*LocalTimeOffset) DescriptorTag() uint8 { return TagLocalTimeOffset }

func decodeLocalTimeOffset(c *wire.Cursor) (descriptor.Record, error) {
	n, err := descriptor.Chunks(c, 13)
	if err != nil {
		return nil, err
	}
	d := &LocalTimeOffset{Offsets: make([]TimeOffset, 0, n)}
	for range n {
		o, err := readTimeOffset(c)
		if err != nil {
			return nil, err
		}
		d.Offsets = append(d.Offsets, o)
	}
	return d, nil
}

func readTimeOffset(c *wire.Cursor) (TimeOffset, error) {
	var o TimeOffset
	country, err := c.ReadString(3, charset.Latin1)
	if err != nil {
		return o, err
	}
	b, err := c.ReadU8()
	if err != nil {
		return o, err
	}
	cur, err := c.ReadU16()
	if err != nil {
		return o, err
	}
	change, err := c.ReadU40()
	if err != nil {
		return o, err
	}
	next, err := c.ReadU16()
	if err != nil {
		return o, err
	}
	o.Country = country
	o.RegionID = b >> 2
	if o.Offset, err = descriptor.BCDHourMinute(cur); err != nil {
		return o, err
	}
	if o.ChangeTime, err = descriptor.UTCTime(change); err != nil {
		return o, err
	}
	if o.NextOffset, err = descriptor.BCDHourMinute(next); err != nil {
		return o, err
	}
	if b&0x01 != 0 {
		o.Offset, o.NextOffset = -o.Offset, -o.NextOffset
	}
	return o, nil
}

// PrivateDataSpecifier is the private_data_specifier_descriptor. It scopes
// the meaning of user-defined descriptors that follow it in the loop.
type PrivateDataSpecifier struct {
	Specifier uint32
}

func (*PrivateDataSpecifier) DescriptorTag() uint8 { return TagPrivateDataSpecifier }

func decodePrivateDataSpecifier(c *wire.Cursor) (descriptor.Record, error) {
	v, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	return &PrivateDataSpecifier{Specifier: v}, nil
}
