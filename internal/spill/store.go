// Package spill implements the temp-directory-backed, partitioned,
// append-only JSON-lines storage used by the partitioned diff path
// (spec.md §4.4). A Store is a scoped resource: acquired at planner start,
// released (directory removed) on every exit path, success, error, or
// cancellation.
package spill

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/difflyhq/difflycore/internal/diffyerr"
)

// Side is one of the two inputs.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

func (s Side) valid() bool {
	return s == SideA || s == SideB
}

// Record is the serialized per-row envelope written to a partition file.
type Record struct {
	Key      []string          `json:"key"`
	RowIndex int               `json:"row_index"`
	Row      map[string]string `json:"row"`
}

// Store owns one temp directory holding `{side}_{partition}.jsonl` files.
type Store struct {
	dir        string
	partitions int

	mu      sync.Mutex
	writers map[string]*bufio.Writer
	handles map[string]*os.File
}

// New acquires a fresh temp directory configured for partitions count P.
func New(partitions int) (*Store, error) {
	if partitions < 1 {
		partitions = 1
	}
	dir, err := os.MkdirTemp("", "diffly-spill-*")
	if err != nil {
		return nil, diffyerr.Wrap(diffyerr.StorageError, err, "failed to create spill directory: %v", err)
	}
	logrus.WithField("dir", dir).WithField("partitions", partitions).Debug("spill store acquired")
	return &Store{
		dir:        dir,
		partitions: partitions,
		writers:    make(map[string]*bufio.Writer),
		handles:    make(map[string]*os.File),
	}, nil
}

func (s *Store) key(side Side, partition int) string {
	return fmt.Sprintf("%s_%d", side, partition)
}

// Path returns the validated on-disk path for a given side/partition.
func (s *Store) Path(side Side, partition int) (string, error) {
	if !side.valid() || partition < 0 || partition >= s.partitions {
		return "", diffyerr.New(diffyerr.StorageError, "invalid spill location: side=%s partition=%d", side, partition)
	}
	return filepath.Join(s.dir, s.key(side, partition)+".jsonl"), nil
}

// Append writes rec to the side/partition file, creating it on first use.
func (s *Store) Append(side Side, partition int, rec Record) error {
	path, err := s.Path(side, partition)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(side, partition)
	w, ok := s.writers[key]
	if !ok {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return diffyerr.Wrap(diffyerr.StorageError, err, "failed to open spill file %s: %v", path, err)
		}
		w = bufio.NewWriter(f)
		s.writers[key] = w
		s.handles[key] = f
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return diffyerr.Wrap(diffyerr.StorageError, err, "failed to encode spill record: %v", err)
	}
	if _, err := w.Write(line); err != nil {
		return diffyerr.Wrap(diffyerr.StorageError, err, "failed to write spill record to %s: %v", path, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return diffyerr.Wrap(diffyerr.StorageError, err, "failed to write spill record to %s: %v", path, err)
	}
	return nil
}

// FinishWrites flushes and closes every open write handle. Call this once
// the planning pass completes, before reading any partition back.
func (s *Store) FinishWrites() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, w := range s.writers {
		if err := w.Flush(); err != nil {
			return diffyerr.Wrap(diffyerr.StorageError, err, "failed to flush spill writer %s: %v", key, err)
		}
	}
	for key, f := range s.handles {
		if err := f.Close(); err != nil {
			return diffyerr.Wrap(diffyerr.StorageError, err, "failed to close spill file %s: %v", key, err)
		}
	}
	s.writers = make(map[string]*bufio.Writer)
	s.handles = make(map[string]*os.File)
	return nil
}

// ReadPartition reads the whole side/partition file back into memory. A
// partition file that was never written (no rows routed there) yields an
// empty slice, not an error.
func (s *Store) ReadPartition(side Side, partition int) ([]Record, error) {
	path, err := s.Path(side, partition)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, diffyerr.Wrap(diffyerr.StorageError, err, "failed to open spill file %s: %v", path, err)
	}
	defer f.Close()

	var records []Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, diffyerr.Wrap(diffyerr.StorageError, err, "failed to decode spill record from %s: %v", path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Drop removes the store's temp directory and all its contents. Safe to
// call more than once, and safe to call even if writes are still open.
func (s *Store) Drop() error {
	s.mu.Lock()
	for _, w := range s.writers {
		w.Flush()
	}
	for _, f := range s.handles {
		f.Close()
	}
	s.writers = make(map[string]*bufio.Writer)
	s.handles = make(map[string]*os.File)
	dir := s.dir
	s.mu.Unlock()

	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return diffyerr.Wrap(diffyerr.StorageError, err, "failed to remove spill directory %s: %v", dir, err)
	}
	logrus.WithField("dir", dir).Debug("spill store released")
	return nil
}
