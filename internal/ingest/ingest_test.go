package ingest

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	stream, w, err := r.Register("test-stream")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if stream.Key != "test-stream" {
		t.Fatalf("got key %q, want %q", stream.Key, "test-stream")
	}
	if w == nil {
		t.Fatal("writer is nil")
	}

	got, ok := r.Get("test-stream")
	if !ok {
		t.Fatal("Get returned false for registered stream")
	}
	if got != stream {
		t.Fatal("Get returned different stream pointer")
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	first, _, err := r.Register("cam")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := r.Register("cam"); !errors.Is(err, ErrDuplicateStream) {
		t.Fatalf("second Register: got %v, want ErrDuplicateStream", err)
	}
	if got, _ := r.Get("cam"); got != first {
		t.Fatal("duplicate replaced the active stream")
	}

	r.Unregister("cam")
	if _, _, err := r.Register("cam"); err != nil {
		t.Fatalf("Register after Unregister: %v", err)
	}
}

func TestRegistryGetMissing(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	if _, ok := r.Get("nonexistent"); ok {
		t.Fatal("Get returned true for missing stream")
	}
}

func TestRegistryUnregister(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	stream, _, _ := r.Register("stream1")
	r.Unregister("stream1")

	if _, ok := r.Get("stream1"); ok {
		t.Fatal("stream still found after Unregister")
	}
	select {
	case <-stream.Done():
	default:
		t.Fatal("Done not closed after Unregister")
	}

	// Reading from the input side should return EOF after the pipe is closed.
	buf := make([]byte, 1)
	if _, err := stream.input.Read(buf); err != io.EOF {
		t.Fatalf("expected EOF after Unregister, got %v", err)
	}

	// Unregistering again must not panic.
	r.Unregister("stream1")
}

func TestRegistryHandlerReadsStream(t *testing.T) {
	t.Parallel()

	type call struct {
		key  string
		data []byte
	}
	done := make(chan call, 1)
	r := NewRegistry(func(key string, input io.Reader) error {
		data, err := io.ReadAll(input)
		done <- call{key, data}
		return err
	}, nil)

	_, w, err := r.Register("cb-stream")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := w.Write([]byte{0x47, 0x40, 0x00}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r.Unregister("cb-stream")

	select {
	case c := <-done:
		if c.key != "cb-stream" {
			t.Fatalf("handler got key %q, want %q", c.key, "cb-stream")
		}
		if len(c.data) != 3 || c.data[0] != 0x47 {
			t.Fatalf("handler got % X", c.data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called within timeout")
	}
}

func TestRegistryHandlerErrorStopsWriter(t *testing.T) {
	t.Parallel()

	r := NewRegistry(func(string, io.Reader) error {
		return errors.New("bad stream")
	}, nil)
	_, w, err := r.Register("s1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer r.Unregister("s1")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := w.Write([]byte{0x47}); err != nil {
			if !errors.Is(err, io.ErrClosedPipe) {
				t.Fatalf("Write: got %v, want io.ErrClosedPipe", err)
			}
			return
		}
	}
	t.Fatal("writes kept succeeding after the handler failed")
}

func TestStreamStats(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	stream, _, _ := r.Register("s1")
	stream.RecordRead(100)
	stream.RecordRead(200)
	stream.SetRemoteAddr("192.168.1.1:5000")

	// Sleep briefly to ensure uptime is measurable.
	time.Sleep(10 * time.Millisecond)

	stats := stream.Stats()
	if stats.Key != "s1" {
		t.Fatalf("Key = %q, want s1", stats.Key)
	}
	if stats.BytesReceived != 300 {
		t.Fatalf("BytesReceived = %d, want 300", stats.BytesReceived)
	}
	if stats.ReadCount != 2 {
		t.Fatalf("ReadCount = %d, want 2", stats.ReadCount)
	}
	if stats.RemoteAddr != "192.168.1.1:5000" {
		t.Fatalf("RemoteAddr = %q, want %q", stats.RemoteAddr, "192.168.1.1:5000")
	}
	if stats.UptimeMs < 10 {
		t.Fatalf("UptimeMs = %d, expected at least 10", stats.UptimeMs)
	}
	if stats.ConnectedAt == 0 {
		t.Fatal("ConnectedAt is zero")
	}
}

func TestRegistryList(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	for _, key := range []string{"c", "a", "b"} {
		r.Register(key)
	}
	r.Unregister("b")

	list := r.List()
	if len(list) != 2 || list[0].Key != "a" || list[1].Key != "c" {
		t.Fatalf("List = %+v, want streams a and c", list)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("stream-%d", n)
			r.Register(key)
			r.Get(key)
			r.List()
			r.Unregister(key)
		}(i)
	}
	wg.Wait()

	if n := len(r.List()); n != 0 {
		t.Fatalf("%d streams left after concurrent register/unregister", n)
	}
}
