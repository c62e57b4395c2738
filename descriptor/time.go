package descriptor

import (
	"fmt"
	"time"
)

// UndefinedUTCTime is the all-ones 40-bit value used for an unset UTC time.
const UndefinedUTCTime = 0xFFFFFFFFFF

var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// DateFromMJD converts a Modified Julian Date to midnight UTC of that day.
func DateFromMJD(mjd uint16) time.Time {
	return mjdEpoch.AddDate(0, 0, int(mjd))
}

// UTCTime decodes the 40-bit UTC_time field: a 16-bit MJD followed by six
// BCD digits of hours, minutes and seconds.
func UTCTime(v uint64) (time.Time, error) {
	d, err := BCDDuration(uint32(v & 0xFFFFFF))
	if err != nil {
		return time.Time{}, err
	}
	return DateFromMJD(uint16(v >> 24)).Add(d), nil
}

// BCDDuration decodes six BCD digits hhmmss.
func BCDDuration(v uint32) (time.Duration, error) {
	h, err := BCD(uint8(v >> 16))
	if err != nil {
		return 0, err
	}
	m, err := BCD(uint8(v >> 8))
	if err != nil {
		return 0, err
	}
	s, err := BCD(uint8(v))
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}

// BCDHourMinute decodes four BCD digits hhmm, as used by time offsets.
func BCDHourMinute(v uint16) (time.Duration, error) {
	h, err := BCD(uint8(v >> 8))
	if err != nil {
		return 0, err
	}
	m, err := BCD(uint8(v))
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// BCD decodes a two-digit binary-coded decimal byte.
func BCD(b uint8) (int, error) {
	hi, lo := b>>4, b&0x0F
	if hi > 9 || lo > 9 {
		return 0, fmt.Errorf("%w: 0x%02X", ErrInvalidBCD, b)
	}
	return int(hi)*10 + int(lo), nil
}
