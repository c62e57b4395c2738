package charset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// aribSet identifies a graphic set that can be designated to G0..G3.
type aribSet uint8

const (
	setKanji aribSet = iota
	setAlnum
	setHiragana
	setKatakana
	setJISKatakana
	setSymbols
	setMosaic
	setDRCS1
	setDRCS2
)

func (s aribSet) width() int {
	switch s {
	case setKanji, setSymbols, setDRCS2:
		return 2
	default:
		return 1
	}
}

// Final bytes of the designation escape sequences (STD-B24 Table 7-3).
func oneByteSet(f byte) aribSet {
	switch f {
	case 0x4A, 0x36:
		return setAlnum
	case 0x30, 0x37:
		return setHiragana
	case 0x31, 0x38:
		return setKatakana
	case 0x49:
		return setJISKatakana
	default:
		return setMosaic
	}
}

func twoByteSet(f byte) aribSet {
	switch f {
	case 0x42, 0x39:
		return setKanji
	case 0x3B:
		return setSymbols
	default:
		return setDRCS2
	}
}

// kanaTail covers 0x79..0x7E, shared by the hiragana and katakana sets.
var kanaTail = [...]rune{'ー', '。', '「', '」', '、', '・'}

type aribDecoder struct {
	g     [4]aribSet
	gl    int
	gr    int
	ss    int
	sb    strings.Builder
	kanji []byte
}

func newARIBDecoder() *aribDecoder {
	return &aribDecoder{
		g:  [4]aribSet{setKanji, setAlnum, setHiragana, setKatakana},
		gl: 0,
		gr: 2,
	}
}

func decodeARIB(b []byte) (string, error) {
	d := newARIBDecoder()
	d.sb.Grow(len(b) * 2)
	for i := 0; i < len(b); {
		i = d.step(b, i)
	}
	d.flush()
	return d.sb.String(), nil
}

func (d *aribDecoder) step(b []byte, i int) int {
	c := b[i]
	switch {
	case c == 0x1B:
		return d.escape(b, i+1)
	case c == 0x0E: // LS1
		d.gl = 1
	case c == 0x0F: // LS0
		d.gl = 0
	case c == 0x19: // SS2
		d.ss = 2
	case c == 0x1D: // SS3
		d.ss = 3
	case c == 0x0D: // APR
		d.writeRune('\n')
	case c == 0x16: // PAPF
		return i + 2
	case c == 0x1C: // APS
		return i + 3
	case c == 0x20, c == 0xA0:
		d.writeRune(' ')
	case c < 0x20, c == 0x7F, c == 0xFF:
	case c >= 0x80 && c <= 0x9F:
		return d.control(b, i)
	case c >= 0x21 && c <= 0x7E:
		idx := d.gl
		if d.ss != 0 {
			idx, d.ss = d.ss, 0
		}
		return d.char(d.g[idx], b, i)
	default: // 0xA1..0xFE
		return d.char(d.g[d.gr], b, i)
	}
	return i + 1
}

// control skips a C1 control function and its parameter bytes.
func (d *aribDecoder) control(b []byte, i int) int {
	c := b[i]
	i++
	switch c {
	case 0x8B, 0x91, 0x93, 0x94, 0x95, 0x97, 0x98: // SZX FLC POL WMM MACRO HLC RPC
		return i + 1
	case 0x90, 0x92: // COL CDC
		if i < len(b) && b[i] == 0x20 {
			return i + 2
		}
		return i + 1
	case 0x9D: // TIME
		return i + 2
	case 0x9B: // CSI, parameters up to a final byte
		for i < len(b) && (b[i] < 0x40 || b[i] > 0x6F) {
			i++
		}
		return i + 1
	default:
		return i
	}
}

func (d *aribDecoder) escape(b []byte, i int) int {
	if i >= len(b) {
		return len(b)
	}
	switch c := b[i]; {
	case c == 0x6E: // LS2
		d.gl = 2
		return i + 1
	case c == 0x6F: // LS3
		d.gl = 3
		return i + 1
	case c == 0x7E: // LS1R
		d.gr = 1
		return i + 1
	case c == 0x7D: // LS2R
		d.gr = 2
		return i + 1
	case c == 0x7C: // LS3R
		d.gr = 3
		return i + 1
	case c >= 0x28 && c <= 0x2B:
		g := int(c - 0x28)
		if i+1 < len(b) && b[i+1] == 0x20 {
			d.g[g] = setDRCS1
			return i + 3
		}
		if i+1 < len(b) {
			d.g[g] = oneByteSet(b[i+1])
		}
		return i + 2
	case c == 0x24:
		if i+1 >= len(b) {
			return len(b)
		}
		next := b[i+1]
		if next >= 0x28 && next <= 0x2B {
			g := int(next - 0x28)
			if i+2 < len(b) && b[i+2] == 0x20 {
				d.g[g] = setDRCS2
				return i + 4
			}
			if i+2 < len(b) {
				d.g[g] = twoByteSet(b[i+2])
			}
			return i + 3
		}
		d.g[0] = twoByteSet(next)
		return i + 2
	default:
		return i + 1
	}
}

func (d *aribDecoder) char(set aribSet, b []byte, i int) int {
	if set.width() == 2 {
		if i+1 >= len(b) {
			return len(b)
		}
		hi, lo := b[i]&0x7F, b[i+1]&0x7F
		// Rows 85-94 hold the ARIB additional symbols, which have no
		// JIS X 0208 counterpart.
		if set == setKanji && hi < 0x75 {
			d.kanji = append(d.kanji, hi|0x80, lo|0x80)
		} else {
			d.writeRune(utf8.RuneError)
		}
		return i + 2
	}

	c := b[i] & 0x7F
	switch set {
	case setAlnum:
		switch c {
		case 0x5C:
			d.writeRune('¥')
		case 0x7E:
			d.writeRune('‾')
		default:
			d.writeRune(rune(c))
		}
	case setHiragana, setKatakana:
		d.writeRune(kana(set, c))
	case setJISKatakana:
		if c <= 0x5F {
			d.writeRune(0xFF61 + rune(c-0x21))
		} else {
			d.writeRune(utf8.RuneError)
		}
	default:
		d.writeRune(utf8.RuneError)
	}
	return i + 1
}

func kana(set aribSet, c byte) rune {
	if c >= 0x79 {
		return kanaTail[c-0x79]
	}
	if set == setHiragana {
		switch {
		case c <= 0x73:
			return 0x3041 + rune(c-0x21)
		case c == 0x77:
			return 'ゝ'
		case c == 0x78:
			return 'ゞ'
		}
		return utf8.RuneError
	}
	switch {
	case c <= 0x76:
		return 0x30A1 + rune(c-0x21)
	case c == 0x77:
		return 'ヽ'
	default:
		return 'ヾ'
	}
}

func (d *aribDecoder) writeRune(r rune) {
	d.flush()
	d.sb.WriteRune(r)
}

// flush converts pending JIS X 0208 pairs through EUC-JP.
func (d *aribDecoder) flush() {
	if len(d.kanji) == 0 {
		return
	}
	out, err := japanese.EUCJP.NewDecoder().Bytes(d.kanji)
	if err != nil {
		for range len(d.kanji) / 2 {
			d.sb.WriteRune(utf8.RuneError)
		}
	} else {
		d.sb.Write(out)
	}
	d.kanji = d.kanji[:0]
}
