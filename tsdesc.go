// Package tsdesc decodes the tag-length-value descriptors carried in MPEG
// transport stream sections into typed records.
//
// The per-standard packages (mpeg, dvb, atsc, isdb, scte35) each register
// their decoders under a descriptor.Context. NewRegistry installs all of
// them and freezes the result, and Contexts returns the lookup chain a
// descriptor.Walker should use for a stream of a given standard:
//
//	reg, err := tsdesc.NewRegistry()
//	if err != nil {
//		return err
//	}
//	w := descriptor.NewWalker(reg, descriptor.WalkerOptContexts(tsdesc.Contexts(tsdesc.StandardDVB)...))
//	for o := range w.Walk(loop) {
//		switch r := o.Record.(type) {
//		case *dvb.Service:
//			fmt.Println(r.ServiceName)
//		}
//	}
package tsdesc

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/zsiec/tsdesc/atsc"
	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/dvb"
	"github.com/zsiec/tsdesc/isdb"
	"github.com/zsiec/tsdesc/mpeg"
	"github.com/zsiec/tsdesc/scte35"
)

// Standard is the broadcast standard whose service information a stream
// carries.
type Standard string

const (
	StandardMPEG Standard = "mpeg"
	StandardDVB  Standard = "dvb"
	StandardATSC Standard = "atsc"
	StandardISDB Standard = "isdb"
)

// ErrUnknownStandard is returned by ParseStandard for a name it does not
// recognise.
var ErrUnknownStandard = errors.New("tsdesc: unknown standard")

// Standards lists the supported standards.
func Standards() []Standard {
	return []Standard{StandardMPEG, StandardDVB, StandardATSC, StandardISDB}
}

// ParseStandard parses a standard name, ignoring case.
func ParseStandard(s string) (Standard, error) {
	std := Standard(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Standards(), std) {
		return "", fmt.Errorf("%w %q", ErrUnknownStandard, s)
	}
	return std, nil
}

// Contexts returns the descriptor lookup chain for std. Private tags of
// the standard take precedence and the ISO/IEC 13818-1 tags back them.
// An unknown standard gets the MPEG chain.
func Contexts(std Standard) []descriptor.Context {
	switch std {
	case StandardDVB:
		return []descriptor.Context{descriptor.ContextDVB, descriptor.ContextMPEG}
	case StandardATSC:
		return []descriptor.Context{descriptor.ContextATSC, descriptor.ContextMPEG}
	case StandardISDB:
		return []descriptor.Context{descriptor.ContextISDB, descriptor.ContextMPEG}
	default:
		return []descriptor.Context{descriptor.ContextMPEG}
	}
}

// registrars installs every built-in context, in registration order.
var registrars = []struct {
	ctx      descriptor.Context
	register func(*descriptor.Registry) error
}{
	{descriptor.ContextMPEG, mpeg.Register},
	{descriptor.ContextDVB, dvb.Register},
	{descriptor.ContextATSC, atsc.Register},
	{descriptor.ContextISDB, isdb.Register},
	{descriptor.ContextSCTE35, scte35.Register},
}

// NewRegistry returns a frozen registry holding the decoders of every
// built-in standard. opts are passed to descriptor.NewRegistry.
func NewRegistry(opts ...func(*descriptor.Registry)) (*descriptor.Registry, error) {
	reg, err := NewOpenRegistry(opts...)
	if err != nil {
		return nil, err
	}
	reg.Freeze()
	return reg, nil
}

// NewOpenRegistry is NewRegistry without the final Freeze, for callers
// that add their own decoders before freezing.
func NewOpenRegistry(opts ...func(*descriptor.Registry)) (*descriptor.Registry, error) {
	reg := descriptor.NewRegistry(opts...)
	for _, r := range registrars {
		if err := r.register(reg); err != nil {
			return nil, fmt.Errorf("tsdesc: registering %s: %w", r.ctx, err)
		}
	}
	return reg, nil
}

// NewWalker returns a walker over reg resolving tags along the chain of std.
func NewWalker(reg *descriptor.Registry, std Standard, log *slog.Logger, opts ...func(*descriptor.Walker)) *descriptor.Walker {
	all := []func(*descriptor.Walker){
		descriptor.WalkerOptContexts(Contexts(std)...),
		descriptor.WalkerOptLogger(log),
	}
	return descriptor.NewWalker(reg, append(all, opts...)...)
}
