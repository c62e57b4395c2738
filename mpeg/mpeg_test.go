package mpeg

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsdesc/descriptor"
)

func newWalker(t *testing.T) *descriptor.Walker {
	t.Helper()
	reg := descriptor.NewRegistry()
	require.NoError(t, Register(reg))
	reg.Freeze()
	return descriptor.NewWalker(reg)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecoders(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		hex  string
		want descriptor.Record
	}{
		{
			name: "video_stream mpeg-2",
			hex:  "0203" + "18" + "48" + "5F",
			want: &VideoStream{FrameRateCode: 3, ProfileAndLevel: 0x48, ChromaFormat: 1, FrameRateExtension: false},
		},
		{
			name: "video_stream mpeg-1 only",
			hex:  "0201" + "9F",
			want: &VideoStream{MultipleFrameRate: true, FrameRateCode: 3, MPEG1Only: true, ConstrainedParameter: true, StillPicture: true},
		},
		{
			name: "audio_stream",
			hex:  "0301" + "E8",
			want: &AudioStream{FreeFormat: true, ID: 1, Layer: 2, VariableRateAudio: true},
		},
		{
			name: "registration",
			hex:  "0506" + "43554549" + "0102",
			want: &Registration{FormatIdentifier: 0x43554549, AdditionalInfo: []byte{1, 2}},
		},
		{
			name: "data_stream_alignment",
			hex:  "0601" + "01",
			want: &DataStreamAlignment{AlignmentType: 1},
		},
		{
			name: "ca",
			hex:  "0906" + "0B00" + "E1F4" + "AABB",
			want: &CA{SystemID: 0x0B00, PID: 0x01F4, PrivateData: []byte{0xAA, 0xBB}},
		},
		{
			name: "iso_639_language two entries",
			hex:  "0A08" + "656E6700" + "73706103",
			want: &ISO639Language{Languages: []Language{
				{Code: "eng", AudioType: AudioTypeUndefined},
				{Code: "spa", AudioType: AudioTypeVisualImpaired},
			}},
		},
		{
			name: "maximum_bitrate",
			hex:  "0E03" + "C03A98",
			want: &MaximumBitrate{Bitrate: 0x3A98},
		},
		{
			name: "avc_video",
			hex:  "2804" + "64" + "00" + "28" + "BF",
			want: &AVCVideo{ProfileIDC: 100, LevelIDC: 40, StillPresent: true, TwentyFourHourPicture: false, FramePackingSEINotPresent: true},
		},
	}
	w := newWalker(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := w.Decode(mustHex(t, tc.hex))
			require.Len(t, out, 1)
			require.NoError(t, out[0].Err)
			assert.Equal(t, descriptor.ContextMPEG, out[0].Context)
			assert.Equal(t, tc.want, out[0].Record)
			assert.Equal(t, tc.want.DescriptorTag(), out[0].Tag)
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
		{"video_stream mpeg-2 short", "0201" + "1A", descriptor.ErrTruncated},
		{"audio_stream extra byte", "0302" + "E800", descriptor.ErrMalformedLength},
		{"registration short", "0503" + "435545", descriptor.ErrTruncated},
		{"iso_639_language partial entry", "0A07" + "656E6700737061", descriptor.ErrMalformedLength},
		{"avc_video short", "2803" + "640028", descriptor.ErrTruncated},
		{"ca empty", "0900", descriptor.ErrTruncated},
	}
	w := newWalker(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := w.Decode(mustHex(t, tc.hex))
			require.Len(t, out, 1)
			assert.ErrorIs(t, out[0].Err, tc.want)
			assert.Nil(t, out[0].Record)
		})
	}
}

func TestRegistrationFourCC(t *testing.T) {
	t.Parallel()
	r := &Registration{FormatIdentifier: 0x41432D33}
	if got := r.FourCC(); got != "AC-3" {
		t.Errorf("FourCC() = %q, want %q", got, "AC-3")
	}
}

func TestMaximumBitrate(t *testing.T) {
	t.Parallel()
	m := &MaximumBitrate{Bitrate: 0x3A98}
	if got := m.BitsPerSecond(); got != 6_000_000 {
		t.Errorf("BitsPerSecond() = %d, want 6000000", got)
	}
}

func TestRegisterTwiceConflicts(t *testing.T) {
	t.Parallel()
	reg := descriptor.NewRegistry()
	require.NoError(t, Register(reg))
	assert.ErrorIs(t, Register(reg), descriptor.ErrRegistrationConflict)
	assert.Len(t, reg.Tags(descriptor.ContextMPEG), 8)
}
