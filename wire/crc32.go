package wire

import "encoding/binary"

// MPEG-2 CRC32, polynomial 0x04C11DB7, no reflection, initial value
// 0xFFFFFFFF. PSI sections and SCTE-35 splice_info_sections end in it.
var crc32Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ 0x04C11DB7
			} else {
				crc <<= 1
			}
		}
		crc32Table[i] = crc
	}
}

// CRC32 computes the MPEG-2 CRC of data.
func CRC32(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		crc = (crc << 8) ^ crc32Table[byte(crc>>24)^b]
	}
	return crc
}

// CheckCRC32 reports whether the last four bytes of data are the CRC of
// the bytes before them. Running the CRC over a correct section including
// its trailer yields zero.
func CheckCRC32(data []byte) bool {
	return len(data) >= 4 && CRC32(data) == 0
}

// StoredCRC32 returns the big-endian trailer of data, or 0 when data is
// shorter than four bytes.
func StoredCRC32(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(data[len(data)-4:])
}
