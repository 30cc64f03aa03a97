// Package sink provides concrete engine.Sink implementations for delivering
// diff events downstream: stdout/file JSON-lines, an in-memory collector for
// tests, and a retry decorator. The Event shape itself lives in
// internal/events; this package only decides where events go.
package sink

import (
	"encoding/json"
	"io"

	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/engine"
	"github.com/difflyhq/difflycore/internal/events"
)

// JSONLines writes one JSON object per line to w, in the order events
// arrive. This is the default sink for the CLI (spec.md §5).
type JSONLines struct {
	w   io.Writer
	enc *json.Encoder
}

// NewJSONLines wraps w as a JSON-lines sink.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w, enc: json.NewEncoder(w)}
}

// OnEvent writes ev as one JSON line.
func (s *JSONLines) OnEvent(ev events.Event) error {
	if err := s.enc.Encode(ev); err != nil {
		return diffyerr.Wrap(diffyerr.SinkError, err, "failed to encode event: %v", err)
	}
	return nil
}

var _ engine.Sink = (*JSONLines)(nil)
