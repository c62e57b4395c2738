package mpeg

import (
	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/wire"
)

// VideoStream is the video_stream_descriptor. The MPEG-2 fields are only
// present when MPEG1Only is false.
type VideoStream struct {
	MultipleFrameRate    bool
	FrameRateCode        uint8
	MPEG1Only            bool
	ConstrainedParameter bool
	StillPicture         bool
	ProfileAndLevel      uint8
	ChromaFormat         uint8
	FrameRateExtension   bool
}

func (*VideoStream) DescriptorTag() uint8 { return TagVideoStream }

func decodeVideoStream(c *wire.Cursor) (descriptor.Record, error) {
	n := 1
	if p, err := c.Peek(1); err == nil && p[0]&0x04 == 0 {
		n = 3
	}
	r, err := c.Bits(n)
	if err != nil {
		return nil, err
	}
	v := &VideoStream{
		MultipleFrameRate:    r.Bit(),
		FrameRateCode:        uint8(r.Uint32(4)),
		MPEG1Only:            r.Bit(),
		ConstrainedParameter: r.Bit(),
		StillPicture:         r.Bit(),
	}
	if !v.MPEG1Only {
		v.ProfileAndLevel = uint8(r.Uint32(8))
		v.ChromaFormat = uint8(r.Uint32(2))
		v.FrameRateExtension = r.Bit()
	}
	return v, r.Err()
}

// AudioStream is the audio_stream_descriptor.
type AudioStream struct {
	FreeFormat        bool
	ID                uint8
	Layer             uint8
	VariableRateAudio bool
}

func (*AudioStream) DescriptorTag() uint8 { return TagAudioStream }

func decodeAudioStream(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	return &AudioStream{
		FreeFormat:        b&0x80 != 0,
		ID:                (b >> 6) & 0x01,
		Layer:             (b >> 4) & 0x03,
		VariableRateAudio: b&0x08 != 0,
	}, nil
}

// Registration is the registration_descriptor. FormatIdentifier is a
// SMPTE-RA four character code such as "CUEI" or "AC-3".
type Registration struct {
	FormatIdentifier uint32
	AdditionalInfo   []byte
}

func (*Registration) DescriptorTag() uint8 { return TagRegistration }

// FourCC returns the format identifier as text.
func (r *Registration) FourCC() string {
	f := r.FormatIdentifier
	return string([]byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)})
}

func decodeRegistration(c *wire.Cursor) (descriptor.Record, error) {
	f, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	return &Registration{FormatIdentifier: f, AdditionalInfo: c.ReadRest()}, nil
}

// DataStreamAlignment is the data_stream_alignment_descriptor.
type DataStreamAlignment struct {
	AlignmentType uint8
}

func (*DataStreamAlignment) DescriptorTag() uint8 { return TagDataStreamAlignment }

func decodeDataStreamAlignment(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	return &DataStreamAlignment{AlignmentType: b}, nil
}

// CA is the conditional access descriptor: the CA system and the PID
// carrying its ECMs or EMMs.
type CA struct {
	SystemID    uint16
	PID         uint16
	PrivateData []byte
}

func (*CA) DescriptorTag() uint8 { return TagCA }

func decodeCA(c *wire.Cursor) (descriptor.Record, error) {
	id, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	pid, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return &CA{SystemID: id, PID: pid & 0x1FFF, PrivateData: c.ReadRest()}, nil
}

// Audio types of the ISO_639_language_descriptor.
const (
	AudioTypeUndefined       uint8 = 0x00
	AudioTypeCleanEffects    uint8 = 0x01
	AudioTypeHearingImpaired uint8 = 0x02
	AudioTypeVisualImpaired  uint8 = 0x03
)

// Language is one entry of an ISO_639_language_descriptor.
type Language struct {
	Code      string
	AudioType uint8
}

// ISO639Language is the ISO_639_language_descriptor.
type ISO639Language struct {
	Languages []Language
}

func (*ISO639Language) DescriptorTag() uint8 { return TagISO639Language }

func decodeISO639Language(c *wire.Cursor) (descriptor.Record, error) {
	n, err := descriptor.Chunks(c, 4)
	if err != nil {
		return nil, err
	}
	d := &ISO639Language{Languages: make([]Language, 0, n)}
	for range n {
		code, err := c.ReadString(3, charset.Latin1)
		if err != nil {
			return nil, err
		}
		at, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		d.Languages = append(d.Languages, Language{Code: code, AudioType: at})
	}
	return d, nil
}

// MaximumBitrate is the maximum_bitrate_descriptor. Bitrate is in units of
// 50 bytes per second.
type MaximumBitrate struct {
	Bitrate uint32
}

func (*MaximumBitrate) DescriptorTag() uint8 { return TagMaximumBitrate }

// BitsPerSecond converts Bitrate to bits per second.
func (m *MaximumBitrate) BitsPerSecond() uint64 {
	return uint64(m.Bitrate) * 50 * 8
}

func decodeMaximumBitrate(c *wire.Cursor) (descriptor.Record, error) {
	v, err := c.ReadU24()
	if err != nil {
		return nil, err
	}
	return &MaximumBitrate{Bitrate: v & 0x3FFFFF}, nil
}

// AVCVideo is the AVC_video_descriptor.
type AVCVideo struct {
	ProfileIDC                uint8
	ConstraintFlags           uint8
	LevelIDC                  uint8
	StillPresent              bool
	TwentyFourHourPicture     bool
	FramePackingSEINotPresent bool
}

func (*AVCVideo) DescriptorTag() uint8 { return TagAVCVideo }

func decodeAVCVideo(c *wire.Cursor) (descriptor.Record, error) {
	v, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	return &AVCVideo{
		ProfileIDC:                uint8(v >> 24),
		ConstraintFlags:           uint8(v >> 16),
		LevelIDC:                  uint8(v >> 8),
		StillPresent:              v&0x80 != 0,
		TwentyFourHourPicture:     v&0x40 != 0,
		FramePackingSEINotPresent: v&0x20 != 0,
	}, nil
}
