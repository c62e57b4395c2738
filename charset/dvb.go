package charset

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// Character table selectors from EN 300 468 Annex A.2.
const (
	dvbISO8859Dynamic = 0x10
	dvbUCS2           = 0x11
	dvbKSX1001        = 0x12
	dvbGB2312         = 0x13
	dvbBig5           = 0x14
	dvbUTF8           = 0x15
)

var iso8859 = map[int]*charmap.Charmap{
	1:  charmap.ISO8859_1,
	2:  charmap.ISO8859_2,
	3:  charmap.ISO8859_3,
	4:  charmap.ISO8859_4,
	5:  charmap.ISO8859_5,
	6:  charmap.ISO8859_6,
	7:  charmap.ISO8859_7,
	8:  charmap.ISO8859_8,
	9:  charmap.ISO8859_9,
	10: charmap.ISO8859_10,
	11: charmap.Windows874,
	13: charmap.ISO8859_13,
	14: charmap.ISO8859_14,
	15: charmap.ISO8859_15,
	16: charmap.ISO8859_16,
}

func decodeDVB(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	sel := b[0]
	switch {
	case sel >= 0x20:
		return decodeISO6937(b), nil
	case sel >= 0x01 && sel <= 0x0B:
		// 0x01 selects ISO/IEC 8859-5 and so on up to 8859-15.
		cm, ok := iso8859[int(sel)+4]
		if !ok {
			return "", fmt.Errorf("charset: DVB table 0x%02X: %w", sel, ErrUnsupported)
		}
		return decodeSingleByte(cm, b[1:])
	case sel == dvbISO8859Dynamic:
		if len(b) < 3 {
			return "", fmt.Errorf("charset: short ISO 8859 selector: %w", ErrUnsupported)
		}
		part := int(b[1])<<8 | int(b[2])
		cm, ok := iso8859[part]
		if !ok {
			return "", fmt.Errorf("charset: ISO 8859-%d: %w", part, ErrUnsupported)
		}
		return decodeSingleByte(cm, b[3:])
	case sel == dvbUCS2:
		return decodeMultiByte(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), b[1:])
	case sel == dvbKSX1001:
		return decodeMultiByte(korean.EUCKR, b[1:])
	case sel == dvbGB2312:
		return decodeMultiByte(simplifiedchinese.GBK, b[1:])
	case sel == dvbBig5:
		return decodeMultiByte(traditionalchinese.Big5, b[1:])
	case sel == dvbUTF8:
		s, _ := decodeUTF8(b[1:])
		return stripDVBControls(s), nil
	default:
		return "", fmt.Errorf("charset: DVB table 0x%02X: %w", sel, ErrUnsupported)
	}
}

func decodeSingleByte(cm *charmap.Charmap, b []byte) (string, error) {
	out, err := cm.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("charset: %v: %w", cm, err)
	}
	return stripDVBControls(string(out)), nil
}

func decodeMultiByte(enc encoding.Encoding, b []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("charset: %w", err)
	}
	return stripDVBControls(string(out)), nil
}

// stripDVBControls maps the CR/LF control code to a newline and drops the
// other control codes (emphasis on/off and reserved), in both the
// single-byte form U+0080..U+009F and the two-byte form U+E080..U+E09F.
func stripDVBControls(s string) string {
	if !strings.ContainsFunc(s, isDVBControl) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 0x8A || r == 0xE08A:
			sb.WriteByte('\n')
		case isDVBControl(r):
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isDVBControl(r rune) bool {
	return (r >= 0x80 && r <= 0x9F) || (r >= 0xE080 && r <= 0xE09F) || r < 0x20
}

// Non-spacing diacritical marks of ISO/IEC 6937, which precede the base
// letter on the wire.
var iso6937Diacritics = map[byte]rune{
	0xC1: '\u0300',
	0xC2: '\u0301',
	0xC3: '\u0302',
	0xC4: '\u0303',
	0xC5: '\u0304',
	0xC6: '\u0306',
	0xC7: '\u0307',
	0xC8: '\u0308',
	0xCA: '\u030a',
	0xCB: '\u0327',
	0xCD: '\u030b',
	0xCE: '\u0328',
	0xCF: '\u030c',
}

var iso6937High = map[byte]rune{
	0xA0: '\u00a0', 0xA1: '¡', 0xA2: '¢', 0xA3: '£', 0xA5: '¥', 0xA7: '§',
	0xA8: '¤', 0xA9: '‘', 0xAA: '“', 0xAB: '«', 0xAC: '←', 0xAD: '↑',
	0xAE: '→', 0xAF: '↓', 0xB0: '°', 0xB1: '±', 0xB2: '²', 0xB3: '³',
	0xB4: '×', 0xB5: 'µ', 0xB6: '¶', 0xB7: '·', 0xB8: '÷', 0xB9: '’',
	0xBA: '”', 0xBB: '»', 0xBC: '¼', 0xBD: '½', 0xBE: '¾', 0xBF: '¿',
	0xD0: '―', 0xD1: '¹', 0xD2: '®', 0xD3: '©', 0xD4: '™', 0xD5: '♪',
	0xD6: '¬', 0xD7: '¦', 0xDC: '⅛', 0xDD: '⅜', 0xDE: '⅝', 0xDF: '⅞',
	0xE0: 'Ω', 0xE1: 'Æ', 0xE2: 'Đ', 0xE3: 'ª', 0xE4: 'Ħ', 0xE6: 'Ĳ',
	0xE7: 'Ŀ', 0xE8: 'Ł', 0xE9: 'Ø', 0xEA: 'Œ', 0xEB: 'º', 0xEC: 'Þ',
	0xED: 'Ŧ', 0xEE: 'Ŋ', 0xEF: 'ŉ', 0xF0: 'ĸ', 0xF1: 'æ', 0xF2: 'đ',
	0xF3: 'ð', 0xF4: 'ħ', 0xF5: 'ı', 0xF6: 'ĳ', 0xF7: 'ŀ', 0xF8: 'ł',
	0xF9: 'ø', 0xFA: 'œ', 0xFB: 'ß', 0xFC: 'þ', 0xFD: 'ŧ', 0xFE: 'ŋ',
	0xFF: '\u00ad',
}

// decodeISO6937 converts the default DVB table (ISO/IEC 6937 with the
// euro sign at 0xA4) and composes diacritics into precomposed letters.
func decodeISO6937(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == 0x8A:
			sb.WriteByte('\n')
		case c < 0x20 || (c >= 0x80 && c <= 0x9F):
		case c < 0x80:
			sb.WriteByte(c)
		case c == 0xA4:
			sb.WriteRune('€')
		case c >= 0xC1 && c <= 0xCF:
			mark, ok := iso6937Diacritics[c]
			if !ok || i+1 >= len(b) || b[i+1] < 0x20 || b[i+1] >= 0x80 {
				sb.WriteRune(utf8.RuneError)
				continue
			}
			sb.WriteByte(b[i+1])
			sb.WriteRune(mark)
			i++
		default:
			if r, ok := iso6937High[c]; ok {
				sb.WriteRune(r)
			} else {
				sb.WriteRune(utf8.RuneError)
			}
		}
	}
	return norm.NFC.String(sb.String())
}
