// Package diffcore implements the per-partition (or whole-dataset) diff
// algorithms: keyed (spec.md §4.6) and positional (§4.7). The keyed
// algorithm is written once and used both for the in-memory path (the
// whole dataset treated as a single implicit partition) and for each real
// partition in the partitioned path.
package diffcore

import (
	"sort"
	"strconv"
	"strings"

	"github.com/difflyhq/difflycore/internal/diffopts"
	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/events"
	"github.com/difflyhq/difflycore/internal/model"
	"github.com/difflyhq/difflycore/internal/spill"
)

// KeyedItem is a row reduced to its key tuple, original CSV row index, and
// cell values — the common shape both the in-memory path (built straight
// from model.IndexedRow) and the partitioned path (built from spill
// records already carrying their key) feed into DiffKeyed.
type KeyedItem struct {
	Key      model.KeyTuple
	RowIndex int
	Row      model.Row
}

// BuildKeyedItems validates key values and derives key tuples for an
// in-memory side's rows.
func BuildKeyedItems(side string, rows []model.IndexedRow, keyColumns []string) ([]KeyedItem, error) {
	items := make([]KeyedItem, 0, len(rows))
	for _, row := range rows {
		if err := diffopts.ValidateKeyValues(side, row.Index, row.Row, keyColumns); err != nil {
			return nil, err
		}
		items = append(items, KeyedItem{
			Key:      diffopts.KeyTuple(row.Row, keyColumns),
			RowIndex: row.Index,
			Row:      row.Row,
		})
	}
	return items, nil
}

// ItemsFromSpillRecords adapts spill records (already carrying their key)
// into KeyedItems for the partitioned path.
func ItemsFromSpillRecords(records []spill.Record) []KeyedItem {
	items := make([]KeyedItem, 0, len(records))
	for _, rec := range records {
		items = append(items, KeyedItem{
			Key:      rec.Key,
			RowIndex: rec.RowIndex,
			Row:      model.Row(rec.Row),
		})
	}
	return items
}

// joinKey encodes a key tuple as a map key, length-prefixing each part so
// two distinct tuples can never collide on the joined string regardless of
// what bytes the key values themselves contain (spec.md key values are raw
// CSV cell text, not restricted to a safe alphabet).
func joinKey(key model.KeyTuple) string {
	var b strings.Builder
	for _, part := range key {
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

func indexItems(side string, items []KeyedItem) (map[string]KeyedItem, error) {
	indexed := make(map[string]KeyedItem, len(items))
	for _, item := range items {
		k := joinKey(item.Key)
		if prior, exists := indexed[k]; exists {
			return nil, diffyerr.New(diffyerr.DuplicateKey,
				"duplicate key in %s: %v (rows %d and %d)", side, []string(item.Key), prior.RowIndex, item.RowIndex)
		}
		indexed[k] = item
	}
	return indexed, nil
}

func keyObject(keyColumns []string, key model.KeyTuple) map[string]string {
	obj := make(map[string]string, len(keyColumns))
	for i, col := range keyColumns {
		obj[col] = key[i]
	}
	return obj
}

// DiffKeyed indexes both sides (failing with duplicate_key on same-side
// collisions), sorts the union of keys lexicographically, and emits one
// body event per key. It is called once for the whole dataset in the
// in-memory path, and once per partition in the partitioned path.
func DiffKeyed(compareColumns, keyColumns []string, aItems, bItems []KeyedItem, emitUnchanged bool) ([]events.Event, events.Stats, error) {
	indexedA, err := indexItems("A", aItems)
	if err != nil {
		return nil, events.Stats{}, err
	}
	indexedB, err := indexItems("B", bItems)
	if err != nil {
		return nil, events.Stats{}, err
	}

	seen := make(map[string]model.KeyTuple, len(indexedA)+len(indexedB))
	for _, item := range aItems {
		seen[joinKey(item.Key)] = item.Key
	}
	for _, item := range bItems {
		seen[joinKey(item.Key)] = item.Key
	}
	allKeys := make([]model.KeyTuple, 0, len(seen))
	for _, key := range seen {
		allKeys = append(allKeys, key)
	}
	sort.Slice(allKeys, func(i, j int) bool {
		return lessKeyTuple(allKeys[i], allKeys[j])
	})

	var out []events.Event
	var stats events.Stats

	for _, key := range allKeys {
		k := joinKey(key)
		a, inA := indexedA[k]
		b, inB := indexedB[k]
		keyObj := keyObject(keyColumns, key)

		switch {
		case !inA && inB:
			stats.RowsAdded++
			out = append(out, events.Added(keyObj, nil, b.Row))
		case inA && !inB:
			stats.RowsRemoved++
			out = append(out, events.Removed(keyObj, nil, a.Row))
		case inA && inB:
			stats.RowsTotalCompared++
			changed, delta := diffRow(compareColumns, a.Row, b.Row)
			if len(changed) == 0 {
				stats.RowsUnchanged++
				if emitUnchanged {
					out = append(out, events.Unchanged(keyObj, nil, a.Row))
				}
			} else {
				stats.RowsChanged++
				out = append(out, events.Changed(keyObj, nil, changed, a.Row, b.Row, delta))
			}
		}
	}

	return out, stats, nil
}

func diffRow(compareColumns []string, a, b model.Row) ([]string, map[string]events.Delta) {
	var changed []string
	delta := make(map[string]events.Delta)
	for _, col := range compareColumns {
		av, bv := a[col], b[col]
		if av != bv {
			changed = append(changed, col)
			delta[col] = events.Delta{From: av, To: bv}
		}
	}
	return changed, delta
}

func lessKeyTuple(a, b model.KeyTuple) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
