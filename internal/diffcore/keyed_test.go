package diffcore

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/model"
)

func items(rows ...model.IndexedRow) []model.IndexedRow {
	return rows
}

func row(idx int, cells map[string]string) model.IndexedRow {
	return model.IndexedRow{Index: idx, Row: model.Row(cells)}
}

func TestDiffKeyedAddedRemovedChangedUnchanged(t *testing.T) {
	aRows := items(
		row(2, map[string]string{"id": "1", "name": "alice"}),
		row(3, map[string]string{"id": "2", "name": "bob"}),
		row(4, map[string]string{"id": "3", "name": "carol"}),
	)
	bRows := items(
		row(2, map[string]string{"id": "1", "name": "alice"}),
		row(3, map[string]string{"id": "2", "name": "bobby"}),
		row(4, map[string]string{"id": "4", "name": "dave"}),
	)

	aItems, err := BuildKeyedItems("A", aRows, []string{"id"})
	if err != nil {
		t.Fatalf("BuildKeyedItems(A): %v", err)
	}
	bItems, err := BuildKeyedItems("B", bRows, []string{"id"})
	if err != nil {
		t.Fatalf("BuildKeyedItems(B): %v", err)
	}

	out, stats, err := DiffKeyed([]string{"name"}, []string{"id"}, aItems, bItems, true)
	if err != nil {
		t.Fatalf("DiffKeyed: %v", err)
	}

	if stats.RowsAdded != 1 || stats.RowsRemoved != 1 || stats.RowsChanged != 1 || stats.RowsUnchanged != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	var types []string
	for _, ev := range out {
		types = append(types, ev.Type())
	}
	want := []string{"unchanged", "changed", "removed", "added"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i, tp := range types {
		if tp != want[i] {
			t.Fatalf("types[%d] = %q, want %q (full: %v)", i, tp, want[i], types)
		}
	}
}

func TestDiffKeyedSkipsUnchangedWhenNotEmitting(t *testing.T) {
	aRows := items(row(2, map[string]string{"id": "1", "name": "alice"}))
	bRows := items(row(2, map[string]string{"id": "1", "name": "alice"}))

	aItems, _ := BuildKeyedItems("A", aRows, []string{"id"})
	bItems, _ := BuildKeyedItems("B", bRows, []string{"id"})

	out, stats, err := DiffKeyed([]string{"name"}, []string{"id"}, aItems, bItems, false)
	if err != nil {
		t.Fatalf("DiffKeyed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no events emitted, got %v", out)
	}
	if stats.RowsUnchanged != 1 {
		t.Fatalf("expected RowsUnchanged=1 still counted, got %+v", stats)
	}
}

func TestDiffKeyedDuplicateKeyWithinSide(t *testing.T) {
	aRows := items(
		row(2, map[string]string{"id": "1", "name": "alice"}),
		row(3, map[string]string{"id": "1", "name": "alice2"}),
	)
	aItems, err := BuildKeyedItems("A", aRows, []string{"id"})
	if err != nil {
		t.Fatalf("BuildKeyedItems: %v", err)
	}

	_, _, err = DiffKeyed([]string{"name"}, []string{"id"}, aItems, nil, false)
	if diffyerr.CodeOf(err) != diffyerr.DuplicateKey {
		t.Fatalf("expected duplicate_key, got %v", err)
	}
}

func TestBuildKeyedItemsMissingKeyValue(t *testing.T) {
	aRows := items(row(2, map[string]string{"id": "", "name": "alice"}))
	_, err := BuildKeyedItems("A", aRows, []string{"id"})
	if diffyerr.CodeOf(err) != diffyerr.MissingKeyValue {
		t.Fatalf("expected missing_key_value, got %v", err)
	}
}

func TestDiffKeyedEventsSortedByKey(t *testing.T) {
	aRows := items(
		row(2, map[string]string{"id": "3", "name": "carol"}),
		row(3, map[string]string{"id": "1", "name": "alice"}),
		row(4, map[string]string{"id": "2", "name": "bob"}),
	)
	aItems, _ := BuildKeyedItems("A", aRows, []string{"id"})

	out, _, err := DiffKeyed([]string{"name"}, []string{"id"}, nil, aItems, false)
	if err != nil {
		t.Fatalf("DiffKeyed: %v", err)
	}
	var ids []string
	for _, ev := range out {
		key := ev["key"].(map[string]string)
		ids = append(ids, key["id"])
	}
	want := []string{"1", "2", "3"}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("ids = %v, want ascending %v", ids, want)
		}
	}
}

func TestDiffKeyedUnchangedEventMatchesExpectedShape(t *testing.T) {
	aRows := items(row(2, map[string]string{"id": "1", "name": "alice"}))
	bRows := items(row(2, map[string]string{"id": "1", "name": "alice"}))

	aItems, _ := BuildKeyedItems("A", aRows, []string{"id"})
	bItems, _ := BuildKeyedItems("B", bRows, []string{"id"})

	out, _, err := DiffKeyed([]string{"name"}, []string{"id"}, aItems, bItems, true)
	if err != nil {
		t.Fatalf("DiffKeyed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one event, got %v", out)
	}

	want := map[string]interface{}{
		"type": "unchanged",
		"key":  map[string]string{"id": "1"},
	}
	got := map[string]interface{}{
		"type": out[0]["type"],
		"key":  out[0]["key"],
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestDiffKeyedMultiColumnKeyDoesNotCollideOnSeparatorByte(t *testing.T) {
	// ["x", "y\x1fz"] and ["x\x1fy", "z"] would join to the same string
	// under a naive strings.Join(key, "\x1f"), even though they are
	// distinct tuples.
	aRows := items(row(2, map[string]string{"a": "x", "b": "y\x1fz", "name": "alice"}))
	bRows := items(row(2, map[string]string{"a": "x\x1fy", "b": "z", "name": "bob"}))

	aItems, err := BuildKeyedItems("A", aRows, []string{"a", "b"})
	if err != nil {
		t.Fatalf("BuildKeyedItems(A): %v", err)
	}
	bItems, err := BuildKeyedItems("B", bRows, []string{"a", "b"})
	if err != nil {
		t.Fatalf("BuildKeyedItems(B): %v", err)
	}

	out, stats, err := DiffKeyed([]string{"name"}, []string{"a", "b"}, aItems, bItems, false)
	if err != nil {
		t.Fatalf("DiffKeyed: %v", err)
	}
	if stats.RowsAdded != 1 || stats.RowsRemoved != 1 || stats.RowsChanged != 0 {
		t.Fatalf("expected the two distinct tuples to be treated as unrelated rows, got stats = %+v", stats)
	}
	if len(out) != 2 {
		t.Fatalf("expected one added and one removed event, got %v", out)
	}
}

func TestDiffKeyedMultiColumnKey(t *testing.T) {
	aRows := items(row(2, map[string]string{"region": "us", "id": "1", "name": "alice"}))
	bRows := items(row(2, map[string]string{"region": "us", "id": "1", "name": "alicia"}))

	aItems, _ := BuildKeyedItems("A", aRows, []string{"region", "id"})
	bItems, _ := BuildKeyedItems("B", bRows, []string{"region", "id"})

	out, stats, err := DiffKeyed([]string{"name"}, []string{"region", "id"}, aItems, bItems, false)
	if err != nil {
		t.Fatalf("DiffKeyed: %v", err)
	}
	if stats.RowsChanged != 1 || len(out) != 1 {
		t.Fatalf("stats/out = %+v %v", stats, out)
	}
	key := out[0]["key"].(map[string]string)
	if key["region"] != "us" || key["id"] != "1" {
		t.Fatalf("key = %v", key)
	}
}
