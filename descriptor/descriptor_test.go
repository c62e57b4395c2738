package descriptor

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsdesc/wire"
)

type pairRecord struct {
	A, B uint16
}

func (*pairRecord) DescriptorTag() uint8 { return 0x10 }

type listRecord struct {
	Values []uint16
}

func (*listRecord) DescriptorTag() uint8 { return 0x11 }

func decodePair(c *wire.Cursor) (Record, error) {
	a, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	b, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return &pairRecord{A: a, B: b}, nil
}

func decodeList(c *wire.Cursor) (Record, error) {
	n, err := Chunks(c, 2)
	if err != nil {
		return nil, err
	}
	r := &listRecord{Values: make([]uint16, 0, n)}
	for range n {
		v, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		r.Values = append(r.Values, v)
	}
	return r, nil
}

func decodeFirstByteOnly(c *wire.Cursor) (Record, error) {
	if _, err := c.ReadU8(); err != nil {
		return nil, err
	}
	return &pairRecord{}, nil
}

func testRegistry(t testing.TB) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(0x10, ContextMPEG, decodePair))
	require.NoError(t, r.Register(0x11, ContextMPEG, decodeList))
	require.NoError(t, r.Register(0x12, ContextMPEG, decodeFirstByteOnly))
	r.Freeze()
	return r
}

func TestRegistryConflictKeepsOriginal(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	require.NoError(t, r.Register(0xD5, ContextISDB, decodePair))

	err := r.Register(0xD5, ContextISDB, decodeList)
	require.ErrorIs(t, err, ErrRegistrationConflict)

	dec, err := r.Lookup(0xD5, ContextISDB)
	require.NoError(t, err)
	rec, err := Run(dec, []byte{0x00, 0x01, 0x00, 0x02})
	require.NoError(t, err)
	assert.Equal(t, &pairRecord{A: 1, B: 2}, rec)
}

func TestRegistrySameTagOtherContext(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	require.NoError(t, r.Register(0xD5, ContextISDB, decodePair))
	require.NoError(t, r.Register(0xD5, Context("private"), decodeList))

	assert.Equal(t, []Context{ContextISDB, Context("private")}, r.Contexts())
	assert.Equal(t, []uint8{0xD5}, r.Tags(ContextISDB))
}

func TestRegistryLookupMissing(t *testing.T) {
	t.Parallel()
	r := testRegistry(t)
	_, err := r.Lookup(0x10, ContextDVB)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegistryFrozen(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	assert.False(t, r.Frozen())
	r.Freeze()
	r.Freeze()
	assert.True(t, r.Frozen())
	assert.ErrorIs(t, r.Register(0x10, ContextMPEG, decodePair), ErrRegistryFrozen)
	assert.Error(t, NewRegistry().Register(0x10, ContextMPEG, nil))
}

func TestWalkKnownThenUnknown(t *testing.T) {
	t.Parallel()
	w := NewWalker(testRegistry(t))
	region := []byte{
		0x10, 0x04, 0x12, 0x34, 0x56, 0x78,
		0x7E, 0x02, 0xAA, 0xBB,
	}
	out := w.Decode(region)
	require.Len(t, out, 2)

	assert.NoError(t, out[0].Err)
	assert.Equal(t, ContextMPEG, out[0].Context)
	assert.Equal(t, &pairRecord{A: 0x1234, B: 0x5678}, out[0].Record)

	assert.NoError(t, out[1].Err)
	assert.Equal(t, 6, out[1].Offset)
	assert.Equal(t, Context(""), out[1].Context)
	u, ok := out[1].Record.(*Unknown)
	require.True(t, ok, "got %T", out[1].Record)
	assert.Equal(t, uint8(0x7E), u.DescriptorTag())
	assert.Equal(t, []byte{0xAA, 0xBB}, u.Payload)

	region[8] = 0x00
	assert.Equal(t, byte(0xAA), u.Payload[0], "unknown payload must be a copy")
}

func TestWalkOversizeLength(t *testing.T) {
	t.Parallel()
	w := NewWalker(testRegistry(t))
	region := []byte{
		0x11, 0x02, 0x00, 0x01,
		0x10, 0x09, 0x00, 0x00,
	}
	out := w.Decode(region)
	require.Len(t, out, 2)
	assert.NoError(t, out[0].Err)
	assert.ErrorIs(t, out[1].Err, ErrTruncated)
	assert.Nil(t, out[1].Record)
	assert.Equal(t, 4, out[1].Offset)

	var de *DecodeError
	require.True(t, errors.As(out[1].Err, &de))
	assert.Equal(t, uint8(0x10), de.Tag)
}

func TestWalkTrailingByte(t *testing.T) {
	t.Parallel()
	region := []byte{0x11, 0x00, 0x11}

	out := NewWalker(testRegistry(t)).Decode(region)
	require.Len(t, out, 2)
	assert.ErrorIs(t, out[1].Err, ErrTruncated)

	out = NewWalker(testRegistry(t), WalkerOptPadding()).Decode(region)
	require.Len(t, out, 1)
	assert.NoError(t, out[0].Err)
}

func TestWalkPadding(t *testing.T) {
	t.Parallel()
	region := []byte{0x11, 0x02, 0x00, 0x07, 0xFF, 0xFF, 0xFF}

	out := NewWalker(testRegistry(t), WalkerOptPadding()).Decode(region)
	require.Len(t, out, 1)

	// Without padding 0xFF is an ordinary tag whose length overruns.
	out = NewWalker(testRegistry(t)).Decode(region)
	require.Len(t, out, 2)
	assert.ErrorIs(t, out[1].Err, ErrTruncated)
}

func TestWalkDecoderErrorDoesNotStopWalk(t *testing.T) {
	t.Parallel()
	w := NewWalker(testRegistry(t))
	region := []byte{
		0x11, 0x03, 0x00, 0x01, 0x02, // odd list
		0x12, 0x02, 0x01, 0x02, // leaves a byte unread
		0x10, 0x02, 0x00, 0x01, // pair too short
		0x11, 0x00,
	}
	out := w.Decode(region)
	require.Len(t, out, 4)
	assert.ErrorIs(t, out[0].Err, ErrMalformedLength)
	assert.ErrorIs(t, out[1].Err, ErrMalformedLength)
	assert.ErrorIs(t, out[2].Err, ErrTruncated)
	for i := range 3 {
		assert.Nil(t, out[i].Record, "outcome %d", i)
	}
	assert.Equal(t, &listRecord{Values: []uint16{}}, out[3].Record)
}

func TestWalkContextChain(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	require.NoError(t, r.Register(0x10, ContextMPEG, decodePair))
	require.NoError(t, r.Register(0x10, ContextISDB, decodeList))
	r.Freeze()
	region := []byte{0x10, 0x04, 0x00, 0x01, 0x00, 0x02}

	out := NewWalker(r, WalkerOptContexts(ContextISDB, ContextMPEG)).Decode(region)
	require.Len(t, out, 1)
	assert.Equal(t, ContextISDB, out[0].Context)
	assert.Equal(t, &listRecord{Values: []uint16{1, 2}}, out[0].Record)

	out = NewWalker(r, WalkerOptContexts(ContextDVB, ContextMPEG)).Decode(region)
	require.Len(t, out, 1)
	assert.Equal(t, ContextMPEG, out[0].Context)
}

func TestWalkIsRestartableAndIdempotent(t *testing.T) {
	t.Parallel()
	w := NewWalker(testRegistry(t))
	region := []byte{0x11, 0x04, 0x00, 0x01, 0x00, 0x02, 0x42, 0x01, 0x00}
	seq := w.Walk(region)

	var first, second []Outcome
	for o := range seq {
		first = append(first, o)
	}
	for o := range seq {
		second = append(second, o)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second walk differs:\n%v\n%v", first, second)
	}
}

func TestWalkEarlyBreak(t *testing.T) {
	t.Parallel()
	w := NewWalker(testRegistry(t))
	region := []byte{0x11, 0x00, 0x11, 0x00, 0x11, 0x00}
	n := 0
	for range w.Walk(region) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations = %d, want 1", n)
	}
}

func TestWalkEmptyRegion(t *testing.T) {
	t.Parallel()
	assert.Empty(t, NewWalker(testRegistry(t)).Decode(nil))
}

func TestDecodeOne(t *testing.T) {
	t.Parallel()
	w := NewWalker(testRegistry(t))
	rec, err := w.DecodeOne(0x10, []byte{0, 1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, &pairRecord{A: 1, B: 2}, rec)

	rec, err = w.DecodeOne(0x99, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, &Unknown{Tag: 0x99, Payload: []byte{1}}, rec)

	_, err = w.DecodeOne(0x10, []byte{0, 1, 0, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedLength)
}

func TestConcurrentWalks(t *testing.T) {
	t.Parallel()
	w := NewWalker(testRegistry(t))
	region := []byte{0x10, 0x04, 0x00, 0x01, 0x00, 0x02, 0x11, 0x02, 0x00, 0x03}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if out := w.Decode(region); len(out) != 2 {
					t.Errorf("len = %d, want 2", len(out))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDateFromMJD(t *testing.T) {
	t.Parallel()
	got := DateFromMJD(0xC079)
	want := time.Date(1993, time.October, 13, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateFromMJD(0xC079) = %v, want %v", got, want)
	}
}

func TestUTCTime(t *testing.T) {
	t.Parallel()
	got, err := UTCTime(0xC079124500)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1993, time.October, 13, 12, 45, 0, 0, time.UTC), got)

	_, err = UTCTime(0xC0791A4500)
	assert.ErrorIs(t, err, ErrInvalidBCD)
}

func TestBCDDuration(t *testing.T) {
	t.Parallel()
	d, err := BCDDuration(0x014530)
	require.NoError(t, err)
	assert.Equal(t, time.Hour+45*time.Minute+30*time.Second, d)

	d, err = BCDHourMinute(0x0930)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+30*time.Minute, d)
}

func FuzzWalk(f *testing.F) {
	f.Add([]byte{0x10, 0x04, 0x00, 0x01, 0x00, 0x02})
	f.Add([]byte{0x11, 0x03, 0x00, 0x01, 0x02, 0xFF})
	f.Add([]byte{0x10, 0xFF})
	r := testRegistry(f)
	w := NewWalker(r, WalkerOptPadding())
	f.Fuzz(func(t *testing.T, data []byte) {
		for o := range w.Walk(data) {
			if (o.Record == nil) == (o.Err == nil) {
				t.Fatalf("outcome at %d has record %v and error %v", o.Offset, o.Record, o.Err)
			}
			if o.Offset < 0 || o.Offset >= len(data) {
				t.Fatalf("offset %d outside region of %d bytes", o.Offset, len(data))
			}
		}
	})
}

func BenchmarkWalk(b *testing.B) {
	w := NewWalker(testRegistry(b))
	region := []byte{0x10, 0x04, 0x00, 0x01, 0x00, 0x02, 0x11, 0x04, 0x00, 0x03, 0x00, 0x04, 0x42, 0x01, 0x00}
	for b.Loop() {
		for range w.Walk(region) {
		}
	}
}
