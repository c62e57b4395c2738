package isdb

import (
	"github.com/zsiec/tsdesc/charset"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/wire"
)

// CopyControl is the recording control for the whole service or one
// component. MaximumBitrate is in units of 1/4 Mbit/s and is zero when
// absent.
type CopyControl struct {
	ComponentTag      uint8
	RecordingControl  uint8
	HasMaximumBitrate bool
	MaximumBitrate    uint8
	UserDefined       uint8
}

// DigitalCopyControl is the digital_copy_control_descriptor.
type DigitalCopyControl struct {
	CopyControl
	Components []CopyControl
}

func (*DigitalCopyControl) DescriptorTag() uint8 { return TagDigitalCopyControl }

func decodeDigitalCopyControl(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	d := &DigitalCopyControl{CopyControl: CopyControl{
		RecordingControl:  b >> 6,
		HasMaximumBitrate: b&0x20 != 0,
		UserDefined:       b & 0x0F,
	}}
	if d.HasMaximumBitrate {
		if d.MaximumBitrate, err = c.ReadU8(); err != nil {
			return nil, err
		}
	}
	if b&0x10 == 0 {
		return d, nil
	}
	loop, err := descriptor.LengthPrefixed(c)
	if err != nil {
		return nil, err
	}
	for !loop.AtEnd() {
		cc, err := readComponentControl(loop)
		if err != nil {
			return nil, err
		}
		d.Components = append(d.Components, cc)
	}
	return d, nil
}

func readComponentControl(c *wire.Cursor) (CopyControl, error) {
	var cc CopyControl
	tag, err := c.ReadU8()
	if err != nil {
		return cc, err
	}
	b, err := c.ReadU8()
	if err != nil {
		return cc, err
	}
	cc = CopyControl{
		ComponentTag:      tag,
		RecordingControl:  b >> 6,
		HasMaximumBitrate: b&0x20 != 0,
		UserDefined:       b & 0x0F,
	}
	if cc.HasMaximumBitrate {
		if cc.MaximumBitrate, err = c.ReadU8(); err != nil {
			return cc, err
		}
	}
	return cc, nil
}

// AudioComponent is the audio_component_descriptor. SecondLanguage is set
// for dual-mono streams carrying two languages.
type AudioComponent struct {
	StreamContent     uint8
	ComponentType     uint8
	ComponentTag      uint8
	StreamType        uint8
	SimulcastGroupTag uint8
	MainComponent     bool
	QualityIndicator  uint8
	SamplingRate      uint8
	Language          string
	SecondLanguage    string
	Text              string
}

func (*AudioComponent) DescriptorTag() uint8 { return TagAudioComponent }

// SamplingRateHz converts the sampling_rate code, or returns 0 for a
// reserved code.
func (a *AudioComponent) SamplingRateHz() int {
	switch a.SamplingRate {
	case 1:
		return 16000
	case 2:
		return 22050
	case 3:
		return 24000
	case 5:
		return 32000
	case 6:
		return 44100
	case 7:
		return 48000
	default:
		return 0
	}
}

func decodeAudioComponent(c *wire.Cursor) (descriptor.Record, error) {
	head, err := c.ReadBytes(6)
	if err != nil {
		return nil, err
	}
	a := &AudioComponent{
		StreamContent:     head[0] & 0x0F,
		ComponentType:     head[1],
		ComponentTag:      head[2],
		StreamType:        head[3],
		SimulcastGroupTag: head[4],
		MainComponent:     head[5]&0x40 != 0,
		QualityIndicator:  (head[5] >> 4) & 0x03,
		SamplingRate:      (head[5] >> 1) & 0x07,
	}
	if a.Language, err = c.ReadString(3, charset.Latin1); err != nil {
		return nil, err
	}
	if head[5]&0x80 != 0 {
		if a.SecondLanguage, err = c.ReadString(3, charset.Latin1); err != nil {
			return nil, err
		}
	}
	if a.Text, err = c.ReadString(c.Remaining(), charset.ARIB); err != nil {
		return nil, err
	}
	return a, nil
}

// TransmissionType lists the services carried with one transmission
// type of a TS.
type TransmissionType struct {
	Info       uint8
	ServiceIDs []uint16
}

// TSInformation is the ts_information_descriptor.
type TSInformation struct {
	RemoteControlKeyID uint8
	Name               string
	TransmissionTypes  []TransmissionType
}

func (*TSInformation) DescriptorTag() uint8 { return TagTSInformation }

func decodeTSInformation(c *wire.Cursor) (descriptor.Record, error) {
	key, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	name, err := c.ReadString(int(b>>2), charset.ARIB)
	if err != nil {
		return nil, err
	}
	d := &TSInformation{RemoteControlKeyID: key, Name: name}
	count := int(b & 0x03)
	if count > 0 {
		d.TransmissionTypes = make([]TransmissionType, 0, count)
	}
	for range count {
		info, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		n, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		ids, err := c.Sub(int(n) * 2)
		if err != nil {
			return nil, err
		}
		tt := TransmissionType{Info: info, ServiceIDs: make([]uint16, 0, n)}
		for range n {
			id, _ := ids.ReadU16()
			tt.ServiceIDs = append(tt.ServiceIDs, id)
		}
		d.TransmissionTypes = append(d.TransmissionTypes, tt)
	}
	return d, nil
}

// BroadcasterName is the broadcaster_name_descriptor.
type BroadcasterName struct {
	Name string
}

func (*BroadcasterName) DescriptorTag() uint8 { return TagBroadcasterName }

func decodeBroadcasterName(c *wire.Cursor) (descriptor.Record, error) {
	s, err := c.ReadString(c.Remaining(), charset.ARIB)
	if err != nil {
		return nil, err
	}
	return &BroadcasterName{Name: s}, nil
}

// ContentAvailability is the content_availability_descriptor.
type ContentAvailability struct {
	CopyRestrictionMode  bool
	ImageConstraintToken bool
	RetentionMode        bool
	RetentionState       uint8
	EncryptionMode       bool
}

func (*ContentAvailability) DescriptorTag() uint8 { return TagContentAvailability }

func decodeContentAvailability(c *wire.Cursor) (descriptor.Record, error) {
	b, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	// reserved_future_use bytes may follow.
	if err := c.Skip(c.Remaining()); err != nil {
		return nil, err
	}
	return &ContentAvailability{
		CopyRestrictionMode:  b&0x40 != 0,
		ImageConstraintToken: b&0x20 != 0,
		RetentionMode:        b&0x10 != 0,
		RetentionState:       (b >> 1) & 0x07,
		EncryptionMode:       b&0x01 != 0,
	}, nil
}
