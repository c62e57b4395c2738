package scte35

import (
	"github.com/zsiec/tsdesc/wire"
)

// splice_command_type values.
const (
	SpliceNullType           uint8 = 0x00
	SpliceScheduleType       uint8 = 0x04
	SpliceInsertType         uint8 = 0x05
	TimeSignalType           uint8 = 0x06
	BandwidthReservationType uint8 = 0x07
	PrivateCommandType       uint8 = 0xFF
)

// SpliceCommand is the interface for all splice command types.
type SpliceCommand interface {
	CommandType() uint8
}

// SpliceNull is a no-op command used as a heartbeat.
type SpliceNull struct{}

func (*SpliceNull) CommandType() uint8 { return SpliceNullType }

// BandwidthReservation reserves bandwidth in the multiplex and carries no
// fields.
type BandwidthReservation struct{}

func (*BandwidthReservation) CommandType() uint8 { return BandwidthReservationType }

// SpliceTime is a splice_time(). PTSTime is nil when time_specified_flag
// is clear.
type SpliceTime struct {
	PTSTime *uint64
}

// BreakDuration is the duration of a commercial break.
type BreakDuration struct {
	AutoReturn bool
	Duration   uint64
}

// SpliceInsertComponent is one component entry of a component-mode
// splice_insert. SpliceTime is nil in immediate mode.
type SpliceInsertComponent struct {
	ComponentTag uint8
	SpliceTime   *SpliceTime
}

// SpliceInsert signals a splice point in the stream. SpliceTime is set in
// program mode unless SpliceImmediateFlag is set.
type SpliceInsert struct {
	SpliceEventID              uint32
	SpliceEventCancelIndicator bool
	OutOfNetworkIndicator      bool
	ProgramSpliceFlag          bool
	SpliceImmediateFlag        bool
	EventIDCompliance          bool
	SpliceTime                 *SpliceTime
	Components                 []SpliceInsertComponent
	BreakDuration              *BreakDuration
	UniqueProgramID            uint32
	AvailNum                   uint32
	AvailsExpected             uint32
}

func (*SpliceInsert) CommandType() uint8 { return SpliceInsertType }

// TimeSignal carries a splice_time() for segmentation descriptors.
type TimeSignal struct {
	SpliceTime SpliceTime
}

func (*TimeSignal) CommandType() uint8 { return TimeSignalType }

// PrivateCommand is a private_command identified by a registered
// identifier.
type PrivateCommand struct {
	Identifier uint32
	Data       []byte
}

func (*PrivateCommand) CommandType() uint8 { return PrivateCommandType }

// UnknownCommand keeps the raw bytes of a command type this package does
// not decode, splice_schedule included.
type UnknownCommand struct {
	Type uint8
	Data []byte
}

func (cmd *UnknownCommand) CommandType() uint8 { return cmd.Type }

// decodeCommand reads a command of type t from r. With legacy set the
// command's extent is unknown and r spans the rest of the section; the
// caller measures what was consumed.
func decodeCommand(t uint8, r *wire.BitReader, legacy bool) (SpliceCommand, error) {
	var cmd SpliceCommand
	switch t {
	case SpliceNullType:
		cmd = &SpliceNull{}
	case BandwidthReservationType:
		cmd = &BandwidthReservation{}
	case TimeSignalType:
		cmd = &TimeSignal{SpliceTime: readSpliceTime(r)}
	case SpliceInsertType:
		si, err := decodeSpliceInsert(r)
		if err != nil {
			return nil, err
		}
		cmd = si
	default:
		if legacy {
			return nil, ErrUnknownCommandLength
		}
		if t == PrivateCommandType {
			id := r.Uint32(32)
			cmd = &PrivateCommand{Identifier: id, Data: r.Bytes(r.BitsLeft() / 8)}
		} else {
			cmd = &UnknownCommand{Type: t, Data: r.Bytes(r.BitsLeft() / 8)}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func readSpliceTime(r *wire.BitReader) SpliceTime {
	if !r.Bit() {
		r.Skip(7)
		return SpliceTime{}
	}
	r.Skip(6)
	pts := r.Uint64(33)
	return SpliceTime{PTSTime: &pts}
}

func decodeSpliceInsert(r *wire.BitReader) (*SpliceInsert, error) {
	cmd := &SpliceInsert{}
	cmd.SpliceEventID = r.Uint32(32)
	cmd.SpliceEventCancelIndicator = r.Bit()
	r.Skip(7)
	if cmd.SpliceEventCancelIndicator {
		return cmd, nil
	}

	cmd.OutOfNetworkIndicator = r.Bit()
	cmd.ProgramSpliceFlag = r.Bit()
	durationFlag := r.Bit()
	cmd.SpliceImmediateFlag = r.Bit()
	cmd.EventIDCompliance = r.Bit()
	r.Skip(3)

	if cmd.ProgramSpliceFlag {
		if !cmd.SpliceImmediateFlag {
			st := readSpliceTime(r)
			cmd.SpliceTime = &st
		}
	} else {
		count := int(r.Uint32(8))
		minBits := 8
		if !cmd.SpliceImmediateFlag {
			minBits += 8
		}
		if count*minBits > r.BitsLeft() {
			r.Skip(r.BitsLeft() + 1)
			return nil, r.Err()
		}
		cmd.Components = make([]SpliceInsertComponent, count)
		for i := range cmd.Components {
			cmd.Components[i].ComponentTag = uint8(r.Uint32(8))
			if !cmd.SpliceImmediateFlag {
				st := readSpliceTime(r)
				cmd.Components[i].SpliceTime = &st
			}
		}
	}

	if durationFlag {
		cmd.BreakDuration = &BreakDuration{AutoReturn: r.Bit()}
		r.Skip(6)
		cmd.BreakDuration.Duration = r.Uint64(33)
	}

	cmd.UniqueProgramID = r.Uint32(16)
	cmd.AvailNum = r.Uint32(8)
	cmd.AvailsExpected = r.Uint32(8)
	return cmd, nil
}
