// Package mpeg decodes the descriptors defined by ISO/IEC 13818-1 (MPEG-2
// Systems). They occupy tags 0x00-0x3F and are registered under
// descriptor.ContextMPEG; every broadcast standard inherits them, so lookup
// chains normally end with that context.
package mpeg

import (
	"github.com/zsiec/tsdesc/descriptor"
)

// Descriptor tags.
const (
	TagVideoStream         uint8 = 0x02
	TagAudioStream         uint8 = 0x03
	TagRegistration        uint8 = 0x05
	TagDataStreamAlignment uint8 = 0x06
	TagCA                  uint8 = 0x09
	TagISO639Language      uint8 = 0x0A
	TagMaximumBitrate      uint8 = 0x0E
	TagAVCVideo            uint8 = 0x28
)

// Register adds the MPEG-2 Systems decoders to reg.
func Register(reg *descriptor.Registry) error {
	for tag, dec := range map[uint8]descriptor.Decoder{
		TagVideoStream:         decodeVideoStream,
		TagAudioStream:         decodeAudioStream,
		TagRegistration:        decodeRegistration,
		TagDataStreamAlignment: decodeDataStreamAlignment,
		TagCA:                  decodeCA,
		TagISO639Language:      decodeISO639Language,
		TagMaximumBitrate:      decodeMaximumBitrate,
		TagAVCVideo:            decodeAVCVideo,
	} {
		if err := reg.Register(tag, descriptor.ContextMPEG, dec); err != nil {
			return err
		}
	}
	return nil
}
