// Package diffopts holds run options and the header reconciliation rules
// that derive the comparison-column list (spec.md §4.2).
package diffopts

import (
	"sort"

	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/model"
)

// HeaderMode selects how the two headers are reconciled.
type HeaderMode string

const (
	HeaderModeStrict HeaderMode = "strict"
	HeaderModeSorted HeaderMode = "sorted"
)

// ParseHeaderMode validates a raw mode string.
func ParseHeaderMode(value string) (HeaderMode, error) {
	switch HeaderMode(value) {
	case HeaderModeStrict:
		return HeaderModeStrict, nil
	case HeaderModeSorted:
		return HeaderModeSorted, nil
	default:
		return "", diffyerr.New(diffyerr.InvalidHeaderMode, "unsupported header_mode: %s", value)
	}
}

// Options are the run options enumerated in spec.md §6.
type Options struct {
	KeyColumns    []string
	HeaderMode    HeaderMode
	EmitUnchanged bool
}

// Keyed reports whether this run uses keyed (rather than positional)
// matching.
func (o Options) Keyed() bool {
	return len(o.KeyColumns) > 0
}

// ReconcileHeaders validates the two headers against each other under mode
// and returns the comparison-column list.
func ReconcileHeaders(a, b model.Header, mode HeaderMode) ([]string, error) {
	switch mode {
	case HeaderModeStrict:
		if !equalSequence(a, b) {
			return nil, diffyerr.New(diffyerr.HeaderMismatch, "header mismatch: A=%v B=%v", a, b)
		}
		cols := make([]string, len(a))
		copy(cols, a)
		return cols, nil
	case HeaderModeSorted:
		aSorted := sortedCopy(a)
		bSorted := sortedCopy(b)
		if !equalSequence(aSorted, bSorted) {
			return nil, diffyerr.New(diffyerr.HeaderMismatch, "header mismatch (sorted mode): A=%v B=%v", a, b)
		}
		return aSorted, nil
	default:
		return nil, diffyerr.New(diffyerr.InvalidHeaderMode, "unsupported header_mode: %s", mode)
	}
}

// ValidateKeyColumns ensures every declared key column appears in both
// headers.
func ValidateKeyColumns(keyColumns []string, a, b model.Header) error {
	for _, col := range keyColumns {
		if !a.Contains(col) || !b.Contains(col) {
			return diffyerr.New(diffyerr.MissingKeyColumn, "missing key column: %s", col)
		}
	}
	return nil
}

// ValidateKeyValues ensures row has a non-empty value for every key column,
// citing side, rowIndex, and the offending column on failure.
func ValidateKeyValues(side string, rowIndex int, row model.Row, keyColumns []string) error {
	for _, col := range keyColumns {
		if row[col] == "" {
			return diffyerr.New(diffyerr.MissingKeyValue,
				"missing key value in %s at CSV row %d for key column '%s'", side, rowIndex, col)
		}
	}
	return nil
}

// KeyTuple extracts the ordered key tuple from row. Callers must have
// already validated presence via ValidateKeyValues.
func KeyTuple(row model.Row, keyColumns []string) model.KeyTuple {
	tuple := make(model.KeyTuple, len(keyColumns))
	for i, col := range keyColumns {
		tuple[i] = row[col]
	}
	return tuple
}

func equalSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedCopy(h model.Header) []string {
	out := make([]string, len(h))
	copy(out, h)
	sort.Strings(out)
	return out
}
