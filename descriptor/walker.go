package descriptor

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/zsiec/tsdesc/wire"
)

// paddingTag marks stuffing at the end of a loop region that may carry it.
const paddingTag = 0xFF

// Outcome is the result of decoding one descriptor of a loop. Exactly one
// of Record and Err is set. Context is the context whose decoder handled
// the tag; it is empty for *Unknown records and header errors.
type Outcome struct {
	Offset  int
	Tag     uint8
	Length  int
	Context Context
	Record  Record
	Err     error
}

// Walker decodes descriptor loops against a Registry. It holds no state
// between calls and is safe for concurrent use once the registry is frozen.
type Walker struct {
	reg      *Registry
	contexts []Context
	padding  bool
	log      *slog.Logger
}

// WalkerOptContexts sets the ordered lookup chain. A tag is resolved in the
// first context that has a decoder for it. The default chain is
// ContextMPEG alone.
func WalkerOptContexts(ctxs ...Context) func(*Walker) {
	return func(w *Walker) { w.contexts = slices.Clone(ctxs) }
}

// WalkerOptPadding allows the region to end in stuffing: the walk stops
// quietly at a 0xFF tag or at a trailing byte too short to be a header.
func WalkerOptPadding() func(*Walker) {
	return func(w *Walker) { w.padding = true }
}

// WalkerOptLogger sets the logger for unknown and undecodable descriptors.
func WalkerOptLogger(l *slog.Logger) func(*Walker) {
	return func(w *Walker) { w.log = l }
}

// NewWalker returns a Walker resolving tags in reg.
func NewWalker(reg *Registry, opts ...func(*Walker)) *Walker {
	w := &Walker{reg: reg}
	for _, o := range opts {
		o(w)
	}
	if len(w.contexts) == 0 {
		w.contexts = []Context{ContextMPEG}
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	w.log = w.log.With("component", "descriptor-walker")
	return w
}

// Contexts returns the lookup chain.
func (w *Walker) Contexts() []Context {
	return slices.Clone(w.contexts)
}

// Walk returns a lazy sequence of outcomes for the descriptors in region.
// The sequence depends only on region and may be ranged over any number of
// times. A header or declared length that runs past the end of region
// yields a single ErrTruncated outcome and ends the sequence.
func (w *Walker) Walk(region []byte) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		off := 0
		for off < len(region) {
			rest := len(region) - off
			tag := region[off]
			if w.padding && tag == paddingTag {
				return
			}
			if rest < 2 {
				if w.padding {
					return
				}
				yield(Outcome{
					Offset: off,
					Tag:    tag,
					Err: &DecodeError{Tag: tag, Offset: off,
						Err: &wire.ReadError{Offset: off, Want: 2, Have: rest}},
				})
				return
			}
			n := int(region[off+1])
			if n > rest-2 {
				w.log.Debug("descriptor overruns loop", "tag", hexTag(tag), "offset", off, "length", n, "remaining", rest-2)
				yield(Outcome{
					Offset: off,
					Tag:    tag,
					Length: n,
					Err: &DecodeError{Tag: tag, Offset: off,
						Err: &wire.ReadError{Offset: off + 2, Want: n, Have: rest - 2}},
				})
				return
			}
			end := off + 2 + n
			if !yield(w.decode(off, tag, region[off+2:end:end])) {
				return
			}
			off = end
		}
	}
}

// Decode walks region and collects every outcome.
func (w *Walker) Decode(region []byte) []Outcome {
	var out []Outcome
	for o := range w.Walk(region) {
		out = append(out, o)
	}
	return out
}

// DecodeOne decodes a single descriptor payload, without its header. An
// unregistered tag returns an *Unknown record and no error.
func (w *Walker) DecodeOne(tag uint8, payload []byte) (Record, error) {
	o := w.decode(0, tag, payload)
	return o.Record, o.Err
}

func (w *Walker) lookup(tag uint8) (Decoder, Context, bool) {
	for _, ctx := range w.contexts {
		if dec, err := w.reg.Lookup(tag, ctx); err == nil {
			return dec, ctx, true
		}
	}
	return nil, "", false
}

func (w *Walker) decode(off int, tag uint8, payload []byte) Outcome {
	o := Outcome{Offset: off, Tag: tag, Length: len(payload)}
	dec, ctx, ok := w.lookup(tag)
	if !ok {
		w.log.Debug("unknown descriptor", "tag", hexTag(tag), "offset", off, "length", len(payload))
		o.Record = &Unknown{Tag: tag, Payload: append([]byte(nil), payload...)}
		return o
	}
	o.Context = ctx
	rec, err := Run(dec, payload)
	if err != nil {
		w.log.Debug("descriptor decode failed", "context", ctx, "tag", hexTag(tag), "offset", off, "error", err)
		o.Err = &DecodeError{Tag: tag, Context: ctx, Offset: off, Err: err}
		return o
	}
	o.Record = rec
	return o
}

// Run applies dec to payload and enforces that every byte was consumed.
func Run(dec Decoder, payload []byte) (Record, error) {
	c := wire.NewCursor(payload)
	rec, err := dec(c)
	if err != nil {
		return nil, err
	}
	if !c.AtEnd() {
		return nil, Malformed("%d of %d bytes left unread", c.Remaining(), c.Len())
	}
	if rec == nil {
		return nil, fmt.Errorf("descriptor: decoder returned no record")
	}
	return rec, nil
}

func hexTag(tag uint8) string {
	return fmt.Sprintf("0x%02X", tag)
}
