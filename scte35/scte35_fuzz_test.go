package scte35

import (
	"errors"
	"testing"

	"github.com/zsiec/tsdesc/wire"
)

func FuzzDecode(f *testing.F) {
	for name := range goldenVectors {
		data := golden(f, name)
		f.Add(data)
		f.Add(data[:len(data)/2])
	}
	f.Add([]byte{TableID, 0x30, 0x00})
	f.Add([]byte{TableID, 0x30, 0x04, 0x00, 0x00, 0x00, 0x00})

	w := NewWalker(testRegistry(f))
	f.Fuzz(func(t *testing.T, data []byte) {
		sis, err := Decode(w, data)
		if errors.Is(err, ErrEncrypted) {
			if sis == nil || !sis.EncryptedPacket {
				t.Fatalf("ErrEncrypted without the clear header: %+v", sis)
			}
			return
		}
		if err != nil {
			if sis != nil {
				t.Fatalf("Decode returned %+v with error %v", sis, err)
			}
			return
		}

		sectionLen := 3 + (int(data[1]&0x0F)<<8 | int(data[2]))
		if !wire.CheckCRC32(data[:sectionLen]) {
			t.Fatal("decoded a section with a bad CRC")
		}
		if sis.SpliceCommand == nil {
			t.Fatal("decoded section has no splice command")
		}
		for _, o := range sis.Descriptors {
			if o.Err != nil {
				continue
			}
			if o.Offset < 0 || o.Offset+2+o.Length > sectionLen {
				t.Fatalf("descriptor at %d+%d outside %d-byte section", o.Offset, o.Length, sectionLen)
			}
		}
	})
}
