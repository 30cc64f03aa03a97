package sink

import (
	"os"

	"github.com/difflyhq/difflycore/internal/diffyerr"
)

// FileSink persists events as JSON-lines into a single file, created (or
// truncated) at open time and closed by the caller when the run finishes.
type FileSink struct {
	*JSONLines
	file *os.File
}

// NewFileSink opens path for writing and wraps it as a JSON-lines sink.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, diffyerr.Wrap(diffyerr.StorageError, err, "failed to open sink file %s: %v", path, err)
	}
	return &FileSink{JSONLines: NewJSONLines(f), file: f}, nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	return s.file.Close()
}
