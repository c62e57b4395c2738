package tstest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsdesc/wire"
)

func TestLongSectionCRC(t *testing.T) {
	t.Parallel()
	sec := LongSection(0x42, 0x0001, 3, []byte{0xAA, 0xBB})
	assert.True(t, wire.CheckCRC32(sec))
	assert.Equal(t, len(sec)-3, int(sec[1]&0x0F)<<8|int(sec[2]))
	assert.Equal(t, byte(0xC1|3<<1), sec[5])
}

func TestPacketize(t *testing.T) {
	t.Parallel()
	payload := make([]byte, 300)
	ts := Packetize(0x0100, 15, payload)
	require.Len(t, ts, 2*188)
	assert.Equal(t, byte(0x41), ts[1], "PUSI on first packet")
	assert.Equal(t, byte(0x1F), ts[3])
	assert.Equal(t, byte(0x01), ts[188+1], "no PUSI on continuation")
	assert.Equal(t, byte(0x10), ts[188+3], "continuity counter wraps")
	assert.Equal(t, byte(0xFF), ts[len(ts)-1])
}
