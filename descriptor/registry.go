package descriptor

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/zsiec/tsdesc/wire"
)

// Decoder parses one descriptor payload. The cursor is bounded to exactly
// the declared length; a decoder returns either a complete record or an
// error, never a partial record.
type Decoder func(c *wire.Cursor) (Record, error)

type registryKey struct {
	tag uint8
	ctx Context
}

// Registry maps (tag, Context) pairs to decoders. Registration is
// serialised internally. Once frozen the table is immutable and lookups
// take no lock.
type Registry struct {
	mu       sync.RWMutex
	frozen   atomic.Bool
	decoders map[registryKey]Decoder
	log      *slog.Logger
}

// RegistryOptLogger sets the logger used to report registration problems.
func RegistryOptLogger(l *slog.Logger) func(*Registry) {
	return func(r *Registry) { r.log = l }
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry(opts ...func(*Registry)) *Registry {
	r := &Registry{decoders: make(map[registryKey]Decoder)}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "descriptor-registry")
	return r
}

// Register associates dec with tag under ctx. An existing registration for
// the same pair is kept and ErrRegistrationConflict is returned.
func (r *Registry) Register(tag uint8, ctx Context, dec Decoder) error {
	if dec == nil {
		return fmt.Errorf("descriptor: nil decoder for %s tag 0x%02X", ctx, tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("%w: %s tag 0x%02X", ErrRegistryFrozen, ctx, tag)
	}
	k := registryKey{tag: tag, ctx: ctx}
	if _, ok := r.decoders[k]; ok {
		r.log.Warn("duplicate descriptor registration", "context", ctx, "tag", fmt.Sprintf("0x%02X", tag))
		return fmt.Errorf("%w: %s tag 0x%02X", ErrRegistrationConflict, ctx, tag)
	}
	r.decoders[k] = dec
	return nil
}

// Lookup returns the decoder registered for tag under ctx.
func (r *Registry) Lookup(tag uint8, ctx Context) (Decoder, error) {
	k := registryKey{tag: tag, ctx: ctx}
	var (
		dec Decoder
		ok  bool
	)
	if r.frozen.Load() {
		dec, ok = r.decoders[k]
	} else {
		r.mu.RLock()
		dec, ok = r.decoders[k]
		r.mu.RUnlock()
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s tag 0x%02X", ErrNotRegistered, ctx, tag)
	}
	return dec, nil
}

// Freeze ends the registration phase. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Tags returns the tags registered under ctx in ascending order.
func (r *Registry) Tags(ctx Context) []uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tags []uint8
	for k := range r.decoders {
		if k.ctx == ctx {
			tags = append(tags, k.tag)
		}
	}
	slices.Sort(tags)
	return tags
}

// Contexts returns every context with at least one registration, sorted.
func (r *Registry) Contexts() []Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[Context]struct{})
	for k := range r.decoders {
		seen[k.ctx] = struct{}{}
	}
	out := make([]Context, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Context) int { return cmp.Compare(a, b) })
	return out
}
