// Package events defines the tagged event shapes emitted at the engine
// boundary (spec.md §6) and the run-level stats counters (§4.8). Event
// follows the teacher's sink.Event map[string]interface{} shape: a flexible
// envelope that different sinks (stdout, file, collect) can serialize
// however they like, while still letting Go's default JSON map encoding
// (which sorts keys) give byte-stable output across runs.
package events

// Event is a tagged, JSON-shaped object: a "type" field plus whatever other
// fields that type carries, per the table in spec.md §6.
type Event map[string]interface{}

// Type returns the event's "type" field, or "" if missing.
func (e Event) Type() string {
	t, _ := e["type"].(string)
	return t
}

// Delta describes a single changed column's before/after values.
type Delta struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Stats are the run-level counters maintained by the diff core and reset
// per run.
type Stats struct {
	RowsTotalCompared uint64
	RowsAdded         uint64
	RowsRemoved       uint64
	RowsChanged       uint64
	RowsUnchanged     uint64
}

// Add accumulates other into s, used when merging per-partition stats into
// a run-wide total.
func (s *Stats) Add(other Stats) {
	s.RowsTotalCompared += other.RowsTotalCompared
	s.RowsAdded += other.RowsAdded
	s.RowsRemoved += other.RowsRemoved
	s.RowsChanged += other.RowsChanged
	s.RowsUnchanged += other.RowsUnchanged
}

// Schema builds the one-and-only schema event.
func Schema(columnsA, columnsB []string) Event {
	return Event{
		"type":       "schema",
		"columns_a":  columnsA,
		"columns_b":  columnsB,
	}
}

// StatsEvent builds the one-and-only stats event.
func StatsEvent(s Stats) Event {
	return Event{
		"type":                "stats",
		"rows_total_compared": s.RowsTotalCompared,
		"rows_added":          s.RowsAdded,
		"rows_removed":        s.RowsRemoved,
		"rows_changed":        s.RowsChanged,
		"rows_unchanged":      s.RowsUnchanged,
	}
}

// Progress builds a progress frame.
func Progress(done, total int) Event {
	return Event{
		"type":         "progress",
		"phase":        "emit_events",
		"events_done":  done,
		"events_total": total,
	}
}

// bodyEvent is the shared constructor for added/removed/changed/unchanged,
// identity is either a key map (keyed mode) or a row_index (positional
// mode); exactly one of keyObj/rowIndex should be supplied.
func bodyEvent(kind string, keyObj map[string]string, rowIndex *int, extra Event) Event {
	ev := Event{"type": kind}
	if keyObj != nil {
		ev["key"] = keyObj
	}
	if rowIndex != nil {
		ev["row_index"] = *rowIndex
	}
	for k, v := range extra {
		ev[k] = v
	}
	return ev
}

// Added builds an added event, keyed or positional depending on which of
// keyObj/rowIndex is non-nil.
func Added(keyObj map[string]string, rowIndex *int, row map[string]string) Event {
	return bodyEvent("added", keyObj, rowIndex, Event{"row": row})
}

// Removed builds a removed event.
func Removed(keyObj map[string]string, rowIndex *int, row map[string]string) Event {
	return bodyEvent("removed", keyObj, rowIndex, Event{"row": row})
}

// Unchanged builds an unchanged event.
func Unchanged(keyObj map[string]string, rowIndex *int, row map[string]string) Event {
	return bodyEvent("unchanged", keyObj, rowIndex, Event{"row": row})
}

// Changed builds a changed event carrying the changed-column list, the
// before/after rows, and the from/to delta map.
func Changed(keyObj map[string]string, rowIndex *int, changed []string, before, after map[string]string, delta map[string]Delta) Event {
	deltaObj := make(map[string]map[string]string, len(delta))
	for col, d := range delta {
		deltaObj[col] = map[string]string{"from": d.From, "to": d.To}
	}
	return bodyEvent("changed", keyObj, rowIndex, Event{
		"changed": changed,
		"before":  before,
		"after":   after,
		"delta":   deltaObj,
	})
}
