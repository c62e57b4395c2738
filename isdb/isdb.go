// Package isdb decodes the descriptors of ARIB STD-B10 (ISDB service
// information), registered under descriptor.ContextISDB.
//
// ISDB reuses several DVB descriptor layouts with ARIB STD-B24 text;
// Register installs those too, so a lookup chain of ContextISDB followed
// by ContextMPEG covers an ISDB transport stream.
package isdb

import (
	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/dvb"
)

// Descriptor tags.
const (
	TagDigitalCopyControl  uint8 = 0xC1
	TagAudioComponent      uint8 = 0xC4
	TagTSInformation       uint8 = 0xCD
	TagSeries              uint8 = 0xD5
	TagEventGroup          uint8 = 0xD6
	TagBroadcasterName     uint8 = 0xD8
	TagContentAvailability uint8 = 0xDE
)

// dvbShared lists the EN 300 468 layouts that STD-B10 adopts unchanged.
var dvbShared = []uint8{
	dvb.TagNetworkName,
	dvb.TagService,
	dvb.TagShortEvent,
	dvb.TagExtendedEvent,
	dvb.TagComponent,
	dvb.TagStreamIdentifier,
	dvb.TagContent,
	dvb.TagParentalRating,
	dvb.TagLocalTimeOffset,
}

// Register adds the ISDB decoders to reg.
func Register(reg *descriptor.Registry) error {
	decs := map[uint8]descriptor.Decoder{
		TagDigitalCopyControl:  decodeDigitalCopyControl,
		TagAudioComponent:      decodeAudioComponent,
		TagTSInformation:       decodeTSInformation,
		TagSeries:              decodeEventSeries,
		TagEventGroup:          decodeEventGroup,
		TagBroadcasterName:     decodeBroadcasterName,
		TagContentAvailability: decodeContentAvailability,
	}
	shared := dvb.Decoders(charset.ARIB)
	for _, tag := range dvbShared {
		decs[tag] = shared[tag]
	}
	for tag, dec := range decs {
		if err := reg.Register(tag, descriptor.ContextISDB, dec); err != nil {
			return err
		}
	}
	return nil
}
