// Package partition streams a side's rows once, routing each to its
// computed partition's spill file (spec.md §4.5). Duplicate-key detection
// is deliberately NOT performed here: collisions can only conflict within a
// partition, so that check lives in the per-partition indexer instead
// (internal/diffcore).
package partition

import (
	"github.com/sirupsen/logrus"

	"github.com/difflyhq/difflycore/internal/csvio"
	"github.com/difflyhq/difflycore/internal/diffopts"
	"github.com/difflyhq/difflycore/internal/keyhash"
	"github.com/difflyhq/difflycore/internal/spill"
)

// Counts holds per-partition row counts for one side.
type Counts []int

// Plan streams every row from stream, writing it to store under the
// partition its key hashes to, and validating non-empty key values along
// the way. Width checking happens inside the csvio.Stream itself, since the
// planning pass and the parsing pass are the same streaming traversal here.
func Plan(store *spill.Store, side spill.Side, sideLabel string, keyColumns []string, partitions int, stream *csvio.Stream) (Counts, error) {
	counts := make(Counts, partitions)

	for {
		row, ok, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if err := diffopts.ValidateKeyValues(sideLabel, row.Index, row.Row, keyColumns); err != nil {
			return nil, err
		}

		key := diffopts.KeyTuple(row.Row, keyColumns)
		p := keyhash.Partition(key, partitions)

		rec := spill.Record{
			Key:      key,
			RowIndex: row.Index,
			Row:      row.Row,
		}
		if err := store.Append(side, p, rec); err != nil {
			return nil, err
		}
		counts[p]++
	}

	logrus.WithField("side", sideLabel).WithField("counts", []int(counts)).Debug("partition plan complete")
	return counts, nil
}
