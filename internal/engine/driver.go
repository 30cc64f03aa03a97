package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/difflyhq/difflycore/internal/csvio"
	"github.com/difflyhq/difflycore/internal/diffcore"
	"github.com/difflyhq/difflycore/internal/diffopts"
	"github.com/difflyhq/difflycore/internal/events"
	"github.com/difflyhq/difflycore/internal/model"
	"github.com/difflyhq/difflycore/internal/partition"
	"github.com/difflyhq/difflycore/internal/spill"
)

// source is a small abstraction over "open this side for streaming",
// satisfied by a file path or an in-memory byte buffer.
type source interface {
	open(side string) (*csvio.Stream, error)
}

type fileSource struct{ path string }

func (f fileSource) open(side string) (*csvio.Stream, error) {
	return csvio.Open(f.path, side)
}

type bytesSource struct{ data []byte }

func (b bytesSource) open(side string) (*csvio.Stream, error) {
	return csvio.OpenBytes(b.data, side)
}

// RunFiles diffs two files and streams the resulting events to sink.
func RunFiles(aPath, bPath string, opts diffopts.Options, cfg RunConfig, cancel CancelCheck, sink Sink) error {
	return run(fileSource{aPath}, fileSource{bPath}, opts, cfg, cancel, sink)
}

// RunBytes diffs two in-memory buffers and streams the resulting events to
// sink.
func RunBytes(aBytes, bBytes []byte, opts diffopts.Options, cfg RunConfig, cancel CancelCheck, sink Sink) error {
	return run(bytesSource{aBytes}, bytesSource{bBytes}, opts, cfg, cancel, sink)
}

func run(aSrc, bSrc source, opts diffopts.Options, cfg RunConfig, cancel CancelCheck, sink Sink) error {
	if cancel == nil {
		cancel = NeverCancel{}
	}

	if err := cfg.validate(opts.Keyed()); err != nil {
		return diffError(err)
	}

	var (
		columnsA, columnsB model.Header
		body               []events.Event
		stats              events.Stats
	)

	if opts.Keyed() && cfg.PartitionCount != nil {
		a, b, bodyEvents, runStats, err := runPartitioned(aSrc, bSrc, opts, *cfg.PartitionCount)
		if err != nil {
			return diffError(err)
		}
		columnsA, columnsB, body, stats = a, b, bodyEvents, runStats
	} else {
		a, b, bodyEvents, runStats, err := runInMemory(aSrc, bSrc, opts)
		if err != nil {
			return diffError(err)
		}
		columnsA, columnsB, body, stats = a, b, bodyEvents, runStats
	}

	return emit(sink, cancel, cfg, columnsA, columnsB, body, stats)
}

func runInMemory(aSrc, bSrc source, opts diffopts.Options) (model.Header, model.Header, []events.Event, events.Stats, error) {
	aHeader, aRows, err := readAll(aSrc, "A")
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	bHeader, bRows, err := readAll(bSrc, "B")
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}

	compareColumns, err := diffopts.ReconcileHeaders(aHeader, bHeader, opts.HeaderMode)
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}

	if !opts.Keyed() {
		body, stats, err := diffcore.DiffPositional(compareColumns, aRows, bRows, opts.EmitUnchanged)
		return aHeader, bHeader, body, stats, err
	}

	if err := diffopts.ValidateKeyColumns(opts.KeyColumns, aHeader, bHeader); err != nil {
		return nil, nil, nil, events.Stats{}, err
	}

	aItems, err := diffcore.BuildKeyedItems("A", aRows, opts.KeyColumns)
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	bItems, err := diffcore.BuildKeyedItems("B", bRows, opts.KeyColumns)
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}

	body, stats, err := diffcore.DiffKeyed(compareColumns, opts.KeyColumns, aItems, bItems, opts.EmitUnchanged)
	return aHeader, bHeader, body, stats, err
}

func readAll(src source, side string) (model.Header, []model.IndexedRow, error) {
	s, err := src.open(side)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	rows, err := csvio.ReadAll(s)
	if err != nil {
		return nil, nil, err
	}
	return s.Header(), rows, nil
}

func runPartitioned(aSrc, bSrc source, opts diffopts.Options, partitions int) (model.Header, model.Header, []events.Event, events.Stats, error) {
	aStream, err := aSrc.open("A")
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	defer aStream.Close()
	bStream, err := bSrc.open("B")
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	defer bStream.Close()

	aHeader, bHeader := aStream.Header(), bStream.Header()

	compareColumns, err := diffopts.ReconcileHeaders(aHeader, bHeader, opts.HeaderMode)
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	if err := diffopts.ValidateKeyColumns(opts.KeyColumns, aHeader, bHeader); err != nil {
		return nil, nil, nil, events.Stats{}, err
	}

	store, err := spill.New(partitions)
	if err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	defer store.Drop()

	if _, err := partition.Plan(store, spill.SideA, "A", opts.KeyColumns, partitions, aStream); err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	if _, err := partition.Plan(store, spill.SideB, "B", opts.KeyColumns, partitions, bStream); err != nil {
		return nil, nil, nil, events.Stats{}, err
	}
	if err := store.FinishWrites(); err != nil {
		return nil, nil, nil, events.Stats{}, err
	}

	var body []events.Event
	var stats events.Stats

	for p := 0; p < partitions; p++ {
		aRecords, err := store.ReadPartition(spill.SideA, p)
		if err != nil {
			return nil, nil, nil, events.Stats{}, err
		}
		bRecords, err := store.ReadPartition(spill.SideB, p)
		if err != nil {
			return nil, nil, nil, events.Stats{}, err
		}

		partitionBody, partitionStats, err := diffcore.DiffKeyed(
			compareColumns, opts.KeyColumns,
			diffcore.ItemsFromSpillRecords(aRecords),
			diffcore.ItemsFromSpillRecords(bRecords),
			opts.EmitUnchanged,
		)
		if err != nil {
			return nil, nil, nil, events.Stats{}, err
		}
		body = append(body, partitionBody...)
		stats.Add(partitionStats)
	}

	return aHeader, bHeader, body, stats, nil
}

func emit(sink Sink, cancel CancelCheck, cfg RunConfig, columnsA, columnsB model.Header, body []events.Event, stats events.Stats) error {
	total := 2 + len(body)
	done := 0

	send := func(ev events.Event) error {
		if cancel.Cancelled() {
			return cancelledError()
		}
		if err := sink.OnEvent(ev); err != nil {
			return sinkError(err)
		}
		return nil
	}

	if err := send(events.Schema(columnsA, columnsB)); err != nil {
		return err
	}

	if cfg.EmitProgress {
		if err := send(events.Progress(done, total)); err != nil {
			return err
		}
	}

	for _, ev := range body {
		if err := send(ev); err != nil {
			return err
		}
		done++
		if cfg.EmitProgress && done%cfg.ProgressIntervalEvents == 0 {
			if err := send(events.Progress(done, total)); err != nil {
				return err
			}
		}
	}

	if cfg.EmitProgress {
		if err := send(events.Progress(done, total)); err != nil {
			return err
		}
	}

	if err := send(events.StatsEvent(stats)); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"rows_total_compared": stats.RowsTotalCompared,
		"rows_added":          stats.RowsAdded,
		"rows_removed":        stats.RowsRemoved,
		"rows_changed":        stats.RowsChanged,
		"rows_unchanged":      stats.RowsUnchanged,
	}).Info("diff run complete")

	return nil
}
