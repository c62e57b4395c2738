// Package dvb decodes the service information descriptors of ETSI EN 300
// 468. The text-bearing decoders take the string charset as a parameter so
// the same layouts can be registered under other tag spaces that reuse
// them, such as ISDB with ARIB STD-B24 text.
package dvb

import (
	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
)

// Descriptor tags.
const (
	TagNetworkName          uint8 = 0x40
	TagService              uint8 = 0x48
	TagShortEvent           uint8 = 0x4D
	TagExtendedEvent        uint8 = 0x4E
	TagComponent            uint8 = 0x50
	TagStreamIdentifier     uint8 = 0x52
	TagContent              uint8 = 0x54
	TagParentalRating       uint8 = 0x55
	TagLocalTimeOffset      uint8 = 0x58
	TagPrivateDataSpecifier uint8 = 0x5F
)

// Decoders returns the decoders of this package keyed by tag, decoding
// text fields with text.
func Decoders(text charset.Decoder) map[uint8]descriptor.Decoder {
	return map[uint8]descriptor.Decoder{
		TagNetworkName:          decodeNetworkName(text),
		TagService:              decodeService(text),
		TagShortEvent:           decodeShortEvent(text),
		TagExtendedEvent:        decodeExtendedEvent(text),
		TagComponent:            decodeComponent(text),
		TagStreamIdentifier:     decodeStreamIdentifier,
		TagContent:              decodeContent,
		TagParentalRating:       decodeParentalRating,
		TagLocalTimeOffset:      decodeLocalTimeOffset,
		TagPrivateDataSpecifier: decodePrivateDataSpecifier,
	}
}

// Register adds the DVB decoders to reg under descriptor.ContextDVB with
// EN 300 468 Annex A text.
func Register(reg *descriptor.Registry) error {
	for tag, dec := range Decoders(charset.DVB) {
		if err := reg.Register(tag, descriptor.ContextDVB, dec); err != nil {
			return err
		}
	}
	return nil
}
