package tsdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/dvb"
	"github.com/zsiec/tsdesc/isdb"
	"github.com/zsiec/tsdesc/mpeg"
	"github.com/zsiec/tsdesc/wire"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.True(t, reg.Frozen())
	assert.Equal(t, []descriptor.Context{
		descriptor.ContextATSC,
		descriptor.ContextDVB,
		descriptor.ContextISDB,
		descriptor.ContextMPEG,
		descriptor.ContextSCTE35,
	}, reg.Contexts())

	err = reg.Register(0xF0, descriptor.ContextDVB, func(*wire.Cursor) (descriptor.Record, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, descriptor.ErrRegistryFrozen)
}

func TestNewOpenRegistry(t *testing.T) {
	t.Parallel()
	reg, err := NewOpenRegistry()
	require.NoError(t, err)
	assert.False(t, reg.Frozen())

	err = reg.Register(isdb.TagSeries, descriptor.ContextISDB, func(*wire.Cursor) (descriptor.Record, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, descriptor.ErrRegistrationConflict)

	rec, err := NewWalker(reg, StandardISDB, nil).DecodeOne(isdb.TagSeries, []byte{
		0x12, 0x34, 0x04, 0xFF, 0xFF, 0x00, 0x30, 0x0C,
	})
	require.NoError(t, err)
	assert.IsType(t, &isdb.EventSeries{}, rec)
}

func TestContexts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		std  Standard
		want []descriptor.Context
	}{
		{StandardMPEG, []descriptor.Context{descriptor.ContextMPEG}},
		{StandardDVB, []descriptor.Context{descriptor.ContextDVB, descriptor.ContextMPEG}},
		{StandardATSC, []descriptor.Context{descriptor.ContextATSC, descriptor.ContextMPEG}},
		{StandardISDB, []descriptor.Context{descriptor.ContextISDB, descriptor.ContextMPEG}},
		{Standard("dvb-t2"), []descriptor.Context{descriptor.ContextMPEG}},
	}
	for _, tc := range tests {
		t.Run(string(tc.std), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Contexts(tc.std))
		})
	}
}

func TestParseStandard(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"dvb", "DVB", " isdb ", "Atsc", "mpeg"} {
		_, err := ParseStandard(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseStandard("dmb")
	assert.ErrorIs(t, err, ErrUnknownStandard)
	_, err = ParseStandard("")
	assert.ErrorIs(t, err, ErrUnknownStandard)
}

func TestChainSelectsCharset(t *testing.T) {
	t.Parallel()
	reg, err := NewRegistry()
	require.NoError(t, err)

	region := []byte{
		dvb.TagService, 0x07, 0x01, 0x00, 0x04, 0x46, 0x7C, 0x4B, 0x5C,
		mpeg.TagMaximumBitrate, 0x03, 0xC0, 0x00, 0x64,
	}

	tests := []struct {
		std     Standard
		ctx     descriptor.Context
		name    string
		unknown bool
	}{
		{std: StandardDVB, ctx: descriptor.ContextDVB, name: `F|K\`},
		{std: StandardISDB, ctx: descriptor.ContextISDB, name: "日本"},
		{std: StandardATSC, unknown: true},
	}
	for _, tc := range tests {
		t.Run(string(tc.std), func(t *testing.T) {
			t.Parallel()
			out := NewWalker(reg, tc.std, nil).Decode(region)
			require.Len(t, out, 2)

			if tc.unknown {
				assert.IsType(t, &descriptor.Unknown{}, out[0].Record)
			} else {
				require.NoError(t, out[0].Err)
				assert.Equal(t, tc.ctx, out[0].Context)
				svc, ok := out[0].Record.(*dvb.Service)
				require.True(t, ok, "got %T", out[0].Record)
				assert.Equal(t, tc.name, svc.ServiceName)
			}

			require.NoError(t, out[1].Err)
			assert.Equal(t, descriptor.ContextMPEG, out[1].Context)
			assert.Equal(t, &mpeg.MaximumBitrate{Bitrate: 100}, out[1].Record)
		})
	}
}
