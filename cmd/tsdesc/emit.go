package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zsiec/tsdesc/descriptor"
	"github.com/zsiec/tsdesc/scan"
)

// line is one JSON object of the output stream.
type line struct {
	Source  string `json:"source"`
	PID     uint16 `json:"pid"`
	TableID uint8  `json:"table_id"`
	Loop    string `json:"loop,omitempty"`
	LoopID  uint32 `json:"loop_id,omitempty"`
	Offset  *int   `json:"offset,omitempty"`
	Tag     *uint8 `json:"tag,omitempty"`
	Context string `json:"context,omitempty"`
	Type    string `json:"type,omitempty"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

// emitter writes results as JSON lines. Results of concurrent scans are
// serialized per section so lines of one section stay together.
type emitter struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
}

func newEmitter(w io.Writer) *emitter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &emitter{w: bw, enc: enc}
}

func (e *emitter) emit(source string, res *scan.Result) error {
	base := line{Source: source, PID: res.PID}
	if res.Section != nil {
		base.TableID = res.Section.TableID
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if res.Err != nil {
		l := base
		l.Error = res.Err.Error()
		if err := e.enc.Encode(l); err != nil {
			return err
		}
		return e.w.Flush()
	}

	if res.Splice != nil {
		l := base
		l.Loop = "splice_command"
		l.Type = typeName(res.Splice.SpliceCommand)
		l.Value = res.Splice.SpliceCommand
		if err := e.enc.Encode(l); err != nil {
			return err
		}
		if err := e.outcomes(base, "splice_descriptor", 0, res.Splice.Descriptors); err != nil {
			return err
		}
	}

	for _, loop := range res.Loops {
		if err := e.outcomes(base, string(loop.Kind), loop.ID, loop.Outcomes); err != nil {
			return err
		}
	}
	return e.w.Flush()
}

func (e *emitter) outcomes(base line, loop string, id uint32, outs []descriptor.Outcome) error {
	for _, o := range outs {
		l := base
		l.Loop = loop
		l.LoopID = id
		l.Offset = &o.Offset
		l.Tag = &o.Tag
		l.Context = string(o.Context)
		if o.Err != nil {
			l.Error = o.Err.Error()
		} else {
			l.Type = typeName(o.Record)
			l.Value = o.Record
		}
		if err := e.enc.Encode(l); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w.Flush()
}

// typeName is the package-qualified Go type of v, e.g. "dvb.Service".
func typeName(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
}
