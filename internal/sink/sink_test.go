package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/events"
)

func TestJSONLinesWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLines(&buf)

	if err := s.OnEvent(events.Event{"type": "schema"}); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if err := s.OnEvent(events.Event{"type": "stats"}); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(lines[0], &decoded); err != nil {
		t.Fatalf("line 0 not valid JSON: %v", err)
	}
	if decoded["type"] != "schema" {
		t.Fatalf("decoded[type] = %v", decoded["type"])
	}
}

func TestFileSinkWritesToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	fs, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if err := fs.OnEvent(events.Event{"type": "added"}); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty file")
	}
}

func TestCollectBuffersEvents(t *testing.T) {
	c := NewCollect()
	_ = c.OnEvent(events.Event{"type": "schema"})
	_ = c.OnEvent(events.Event{"type": "stats"})
	if len(c.Events) != 2 {
		t.Fatalf("Events = %v", c.Events)
	}
}

type failNTimes struct {
	failures int
	calls    int
}

func (f *failNTimes) OnEvent(events.Event) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient failure")
	}
	return nil
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	inner := &failNTimes{failures: 2}
	retry := NewRetry(inner, 3, 1)
	if err := retry.OnEvent(events.Event{"type": "added"}); err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryPropagatesFinalError(t *testing.T) {
	inner := &failNTimes{failures: 5}
	retry := NewRetry(inner, 2, 1)
	err := retry.OnEvent(events.Event{"type": "added"})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if inner.calls != 2 {
		t.Fatalf("calls = %d, want 2", inner.calls)
	}
}

func TestRetryNilInnerReturnsNil(t *testing.T) {
	if NewRetry(nil, 3, 1) != nil {
		t.Fatalf("expected nil sink for nil inner")
	}
}

func TestJSONLinesSinkErrorCode(t *testing.T) {
	s := NewJSONLines(failingWriter{})
	err := s.OnEvent(events.Event{"type": "schema", "bad": make(chan int)})
	if diffyerr.CodeOf(err) != diffyerr.SinkError {
		t.Fatalf("expected sink_error, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}
