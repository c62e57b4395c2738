// Package ingest tracks live transport streams arriving over the network
// and hands each one to a scan callback as an io.Reader.
package ingest

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrDuplicateStream is returned by Register when a stream with the same
// key is already active.
var ErrDuplicateStream = errors.New("ingest: stream key already active")

// Stats captures connection-level counters for a stream.
type Stats struct {
	Key           string `json:"key"`
	BytesReceived int64  `json:"bytesReceived"`
	ReadCount     int64  `json:"readCount"`
	ConnectedAt   int64  `json:"connectedAt"`
	UptimeMs      int64  `json:"uptimeMs"`
	RemoteAddr    string `json:"remoteAddr"`
}

// Stream is an active ingest connection. The network receiver writes into
// the stream's pipe and the scan callback reads the other end.
type Stream struct {
	Key       string
	StartedAt time.Time
	input     io.ReadCloser
	pw        *io.PipeWriter
	done      chan struct{}

	bytesReceived atomic.Int64
	readCount     atomic.Int64
	remoteAddr    atomic.Value
}

// RecordRead adds one socket read of n bytes to the counters.
func (s *Stream) RecordRead(n int) {
	s.bytesReceived.Add(int64(n))
	s.readCount.Add(1)
}

// SetRemoteAddr records the peer address.
func (s *Stream) SetRemoteAddr(addr string) {
	s.remoteAddr.Store(addr)
}

// Done is closed when the stream is unregistered.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Stats returns a snapshot of the stream counters.
func (s *Stream) Stats() Stats {
	addr, _ := s.remoteAddr.Load().(string)
	return Stats{
		Key:           s.Key,
		BytesReceived: s.bytesReceived.Load(),
		ReadCount:     s.readCount.Load(),
		ConnectedAt:   s.StartedAt.UnixMilli(),
		UptimeMs:      time.Since(s.StartedAt).Milliseconds(),
		RemoteAddr:    addr,
	}
}

// Handler consumes one stream until its reader returns io.EOF. A non-nil
// error closes the pipe, which fails the receiver's next write.
type Handler func(key string, input io.Reader) error

// Registry tracks active streams by key and runs the handler for each new
// stream in its own goroutine.
type Registry struct {
	log     *slog.Logger
	mu      sync.RWMutex
	streams map[string]*Stream
	handler Handler
}

// NewRegistry creates a Registry. If log is nil, slog.Default() is used.
func NewRegistry(handler Handler, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:     log.With("component", "ingest-registry"),
		streams: make(map[string]*Stream),
		handler: handler,
	}
}

// Register creates a stream under key and returns it with the writer the
// receiver copies socket data into. A key that is already active is
// rejected with ErrDuplicateStream.
func (r *Registry) Register(key string) (*Stream, io.Writer, error) {
	pr, pw := io.Pipe()
	stream := &Stream{
		Key:       key,
		StartedAt: time.Now(),
		input:     pr,
		pw:        pw,
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	if _, ok := r.streams[key]; ok {
		r.mu.Unlock()
		r.log.Warn("rejecting duplicate stream", "key", key)
		return nil, nil, ErrDuplicateStream
	}
	r.streams[key] = stream
	r.mu.Unlock()
	r.log.Info("stream registered", "key", key)

	if r.handler != nil {
		go r.run(stream)
	}
	return stream, pw, nil
}

func (r *Registry) run(s *Stream) {
	err := r.handler(s.Key, s.input)
	if err != nil {
		r.log.Warn("stream handler failed", "key", s.Key, "error", err)
		s.input.Close()
		return
	}
	// Keep the pipe drained until the receiver unregisters.
	io.Copy(io.Discard, s.input)
}

// Unregister removes a stream, closing its pipe and its Done channel.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	stream, ok := r.streams[key]
	if ok {
		delete(r.streams, key)
	}
	r.mu.Unlock()

	if ok {
		stream.pw.Close()
		close(stream.done)
		r.log.Info("stream unregistered", "key", key)
	}
}

// Get returns the stream registered under key.
func (r *Registry) Get(key string) (*Stream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[key]
	return s, ok
}

// List returns the stats of every active stream ordered by key.
func (r *Registry) List() []Stats {
	r.mu.RLock()
	out := make([]Stats, 0, len(r.streams))
	for _, s := range r.streams {
		out = append(out, s.Stats())
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Stats) int { return strings.Compare(a.Key, b.Key) })
	return out
}
