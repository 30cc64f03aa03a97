// Package csvio parses CSV input into headers and indexed rows (spec.md
// §4.1). It uses a flexible parser (encoding/csv with FieldsPerRecord=-1)
// so that width enforcement against the header happens here, under our own
// error taxonomy, rather than inside the lexer.
//
// permissivecsv (github.com/eltorocorp/permissivecsv, also in this
// program's dependency pack) was considered for this role, since it
// already tolerates ragged records. It was rejected: it silently pads or
// truncates mismatched records instead of failing, which is the opposite
// of what row_width_mismatch requires.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/model"
)

const bom = "\xef\xbb\xbf"

// Stream yields indexed rows one at a time against a fixed header, so the
// partition planner can process inputs larger than RAM without materializing
// every row up front.
type Stream struct {
	side   string
	r      *csv.Reader
	header model.Header
	width  int
	next   int
	closer io.Closer
}

// Header returns the normalized header this stream was opened with.
func (s *Stream) Header() model.Header {
	return s.header
}

// Next returns the next indexed row, or ok=false once the stream is
// exhausted. Width mismatches against the header are reported here.
func (s *Stream) Next() (row model.IndexedRow, ok bool, err error) {
	record, err := s.r.Read()
	if err == io.EOF {
		return model.IndexedRow{}, false, nil
	}
	rowIndex := s.next
	s.next++
	if err != nil {
		return model.IndexedRow{}, false, diffyerr.Wrap(diffyerr.CSVParseError, err,
			"failed to parse %s at CSV row %d: %v", s.side, rowIndex, err)
	}
	if len(record) != s.width {
		return model.IndexedRow{}, false, diffyerr.New(diffyerr.RowWidthMismatch,
			"row width mismatch in %s at CSV row %d: expected %d, got %d",
			s.side, rowIndex, s.width, len(record))
	}
	r := make(model.Row, s.width)
	for i, name := range s.header {
		r[name] = record[i]
	}
	return model.IndexedRow{Index: rowIndex, Row: r}, true, nil
}

// Close releases any underlying file handle. Safe to call multiple times.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // flexible at the lexer level; we enforce width ourselves
	cr.LazyQuotes = false
	return cr
}

func openStream(r io.Reader, side, sourceLabel string, closer io.Closer) (*Stream, error) {
	cr := newReader(r)
	first, err := cr.Read()
	if err == io.EOF {
		if closer != nil {
			closer.Close()
		}
		return nil, diffyerr.New(diffyerr.EmptyFile, "%s file is empty: %s", side, sourceLabel)
	}
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, diffyerr.Wrap(diffyerr.CSVParseError, err, "failed to parse %s header: %v", side, err)
	}

	header := make(model.Header, len(first))
	copy(header, first)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup {
			if closer != nil {
				closer.Close()
			}
			return nil, diffyerr.New(diffyerr.DuplicateColumnName, "duplicate column name in %s: %s", side, name)
		}
		seen[name] = struct{}{}
	}

	return &Stream{
		side:   side,
		r:      cr,
		header: header,
		width:  len(header),
		next:   2,
		closer: closer,
	}, nil
}

// Open opens path for streaming, reading and validating its header.
func Open(path, side string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, diffyerr.Wrap(diffyerr.StorageError, err, "failed to open %s: %v", side, err)
	}
	return openStream(f, side, path, f)
}

// OpenBytes opens an in-memory buffer for streaming, reading and validating
// its header.
func OpenBytes(data []byte, side string) (*Stream, error) {
	return openStream(bytes.NewReader(data), side, fmt.Sprintf("<memory:%s>", strings.ToLower(side)), nil)
}

// ReadAll drains a Stream into a slice, for callers that want the
// in-memory (unpartitioned) path.
func ReadAll(s *Stream) ([]model.IndexedRow, error) {
	var rows []model.IndexedRow
	for {
		row, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Read opens, fully reads, and closes path, side is "A" or "B".
func Read(path, side string) (model.Header, []model.IndexedRow, error) {
	s, err := Open(path, side)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	rows, err := ReadAll(s)
	if err != nil {
		return nil, nil, err
	}
	return s.Header(), rows, nil
}

// ReadBytes fully reads an in-memory buffer, side is "A" or "B".
func ReadBytes(data []byte, side string) (model.Header, []model.IndexedRow, error) {
	s, err := OpenBytes(data, side)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	rows, err := ReadAll(s)
	if err != nil {
		return nil, nil, err
	}
	return s.Header(), rows, nil
}
