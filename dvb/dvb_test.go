package dvb

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsdesc/descriptor"
)

func newWalker(t *testing.T) *descriptor.Walker {
	t.Helper()
	reg := descriptor.NewRegistry()
	require.NoError(t, Register(reg))
	reg.Freeze()
	return descriptor.NewWalker(reg, descriptor.WalkerOptContexts(descriptor.ContextDVB))
}

func decodeHex(t *testing.T, w *descriptor.Walker, s string) descriptor.Outcome {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	out := w.Decode(b)
	require.Len(t, out, 1)
	return out[0]
}

func TestDecoders(t *testing.T) {
	t.Parallel()
	change := time.Date(1993, time.October, 13, 1, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		hex  string
		want descriptor.Record
	}{
		{
			name: "network_name",
			hex:  "4004" + "4E657431",
			want: &NetworkName{Name: "Net1"},
		},
		{
			name: "service",
			hex:  "480D" + "01" + "03424243" + "07424243204F4E45",
			want: &Service{ServiceType: ServiceTypeDigitalTV, ProviderName: "BBC", ServiceName: "BBC ONE"},
		},
		{
			name: "short_event",
			hex:  "4D09" + "656E67" + "044E657773" + "00",
			want: &ShortEvent{Language: "eng", EventName: "News"},
		},
		{
			name: "extended_event",
			hex:  "4E10" + "01" + "656E67" + "08" + "03446972" + "03416E6E" + "024869",
			want: &ExtendedEvent{
				Number:     0,
				LastNumber: 1,
				Language:   "eng",
				Items:      []ExtendedEventItem{{Description: "Dir", Item: "Ann"}},
				Text:       "Hi",
			},
		},
		{
			name: "component",
			hex:  "5008" + "F5" + "0B" + "01" + "656E67" + "4844",
			want: &Component{StreamContentExt: 0xF, StreamContent: 5, ComponentType: 0x0B, ComponentTag: 1, Language: "eng", Text: "HD"},
		},
		{
			name: "stream_identifier",
			hex:  "5201" + "01",
			want: &StreamIdentifier{ComponentTag: 1},
		},
		{
			name: "content",
			hex:  "5404" + "2011" + "F0FF",
			want: &Content{Genres: []Genre{{Level1: 2, Level2: 0, User: 0x11}, {Level1: 0xF, Level2: 0, User: 0xFF}}},
		},
		{
			name: "parental_rating",
			hex:  "5504" + "474252" + "09",
			want: &ParentalRating{Ratings: []Rating{{Country: "GBR", Rating: 9}}},
		},
		{
			name: "local_time_offset",
			hex:  "580D" + "474252" + "02" + "0100" + "C079010000" + "0000",
			want: &LocalTimeOffset{Offsets: []TimeOffset{{Country: "GBR", Offset: time.Hour, ChangeTime: change}}},
		},
		{
			name: "local_time_offset negative polarity",
			hex:  "580D" + "425241" + "0F" + "0300" + "C079010000" + "0200",
			want: &LocalTimeOffset{Offsets: []TimeOffset{{Country: "BRA", RegionID: 3, Offset: -3 * time.Hour, ChangeTime: change, NextOffset: -2 * time.Hour}}},
		},
		{
			name: "private_data_specifier",
			hex:  "5F04" + "00000002",
			want: &PrivateDataSpecifier{Specifier: 2},
		},
	}
	w := newWalker(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o := decodeHex(t, w, tc.hex)
			require.NoError(t, o.Err)
			assert.Equal(t, descriptor.ContextDVB, o.Context)
			assert.Equal(t, tc.want, o.Record)
		})
	}
}

func TestDecoderErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		hex  string
		want error
	}{
		{"service name overruns payload", "4803" + "01" + "05" + "42", descriptor.ErrTruncated},
		{"short_event trailing byte", "4D06" + "656E67" + "00" + "00" + "00", descriptor.ErrMalformedLength},
		{"extended_event item overruns loop", "4E08" + "00" + "656E67" + "02" + "0541" + "00", descriptor.ErrTruncated},
		{"content odd length", "5403" + "201100", descriptor.ErrMalformedLength},
		{"parental_rating partial", "5503" + "474252", descriptor.ErrMalformedLength},
		{"local_time_offset bad bcd", "580D" + "474252" + "02" + "0A00" + "C079010000" + "0000", descriptor.ErrInvalidBCD},
		{"local_time_offset short", "580C" + "474252" + "02" + "0100" + "C079010000" + "00", descriptor.ErrMalformedLength},
		{"private_data_specifier short", "5F02" + "0000", descriptor.ErrTruncated},
	}
	w := newWalker(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o := decodeHex(t, w, tc.hex)
			assert.ErrorIs(t, o.Err, tc.want)
			assert.Nil(t, o.Record)
		})
	}
}

func TestRatingMinimumAge(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rating uint8
		want   int
	}{
		{0x00, 0},
		{0x01, 4},
		{0x09, 12},
		{0x0F, 18},
		{0x10, 0},
	}
	for _, tc := range tests {
		if got := (Rating{Rating: tc.rating}).MinimumAge(); got != tc.want {
			t.Errorf("Rating(0x%02X).MinimumAge() = %d, want %d", tc.rating, got, tc.want)
		}
	}
}

func TestDecodersShareLayoutAcrossCharsets(t *testing.T) {
	t.Parallel()
	if got := len(Decoders(nil)); got != 10 {
		t.Errorf("len(Decoders) = %d, want 10", got)
	}
}
