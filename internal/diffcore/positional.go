package diffcore

import (
	"github.com/difflyhq/difflycore/internal/events"
	"github.com/difflyhq/difflycore/internal/model"
)

// DiffPositional matches rows by their zero-based position in each side's
// row stream (spec.md §4.7). Positional mode never partitions, so this
// always runs against the whole dataset.
func DiffPositional(compareColumns []string, aRows, bRows []model.IndexedRow, emitUnchanged bool) ([]events.Event, events.Stats, error) {
	total := len(aRows)
	if len(bRows) > total {
		total = len(bRows)
	}

	var out []events.Event
	var stats events.Stats

	for i := 0; i < total; i++ {
		rowIndex := i + 2
		var a, b *model.IndexedRow
		if i < len(aRows) {
			a = &aRows[i]
		}
		if i < len(bRows) {
			b = &bRows[i]
		}

		switch {
		case a == nil && b != nil:
			stats.RowsAdded++
			out = append(out, events.Added(nil, &rowIndex, b.Row))
		case a != nil && b == nil:
			stats.RowsRemoved++
			out = append(out, events.Removed(nil, &rowIndex, a.Row))
		case a != nil && b != nil:
			stats.RowsTotalCompared++
			changed, delta := diffRow(compareColumns, a.Row, b.Row)
			if len(changed) == 0 {
				stats.RowsUnchanged++
				if emitUnchanged {
					out = append(out, events.Unchanged(nil, &rowIndex, a.Row))
				}
			} else {
				stats.RowsChanged++
				out = append(out, events.Changed(nil, &rowIndex, changed, a.Row, b.Row, delta))
			}
		}
	}

	return out, stats, nil
}
