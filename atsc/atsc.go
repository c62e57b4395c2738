// Package atsc decodes descriptors defined by ATSC A/65 (PSIP) and A/52
// (AC-3), registered under descriptor.ContextATSC.
package atsc

import "github.com/zsiec/tsdesc/descriptor"

// Descriptor tags.
const (
	TagAC3Audio            uint8 = 0x81
	TagCaptionService      uint8 = 0x86
	TagContentAdvisory     uint8 = 0x87
	TagExtendedChannelName uint8 = 0xA0
	TagServiceLocation     uint8 = 0xA1
	TagComponentName       uint8 = 0xA3
)

// Register adds the ATSC decoders to reg.
func Register(reg *descriptor.Registry) error {
	for tag, dec := range map[uint8]descriptor.Decoder{
		TagAC3Audio:            decodeAC3Audio,
		TagCaptionService:      decodeCaptionService,
		TagContentAdvisory:     decodeContentAdvisory,
		TagExtendedChannelName: decodeExtendedChannelName,
		TagServiceLocation:     decodeServiceLocation,
		TagComponentName:       decodeComponentName,
	} {
		if err := reg.Register(tag, descriptor.ContextATSC, dec); err != nil {
			return err
		}
	}
	return nil
}
