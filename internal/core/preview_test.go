package core

import (
	"reflect"
	"testing"
)

func TestPreview(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		table := Preview(NewStore())
		if !table.Empty {
			t.Error("Empty = false, want true")
		}
		if len(table.Rows) != 0 {
			t.Errorf("Rows = %d, want 0", len(table.Rows))
		}
		if !reflect.DeepEqual(table.Header, Columns()) {
			t.Errorf("Header = %q", table.Header)
		}
	})

	t.Run("rows follow insertion order", func(t *testing.T) {
		store := NewStore()
		store.Append(sampleRecord("A"))
		store.Append(sampleRecord("B"))

		table := Preview(store)
		if table.Empty {
			t.Fatal("Empty = true, want false")
		}
		if len(table.Rows) != 2 || table.Rows[0][0] != "A" || table.Rows[1][0] != "B" {
			t.Errorf("Rows = %q", table.Rows)
		}
	})

	t.Run("mutating the projection leaves the store alone", func(t *testing.T) {
		store := NewStore()
		store.Append(sampleRecord("A"))

		table := Preview(store)
		table.Rows[0][0] = "changed"

		if got := store.Records()[0][0]; got != "A" {
			t.Errorf("store record = %q, want %q", got, "A")
		}
	})
}

func TestPreviewText(t *testing.T) {
	t.Run("empty store shows placeholder", func(t *testing.T) {
		if got := PreviewText(NewStore()); got != EmptyPreviewText {
			t.Errorf("PreviewText() = %q, want %q", got, EmptyPreviewText)
		}
	})

	t.Run("fields are joined without quoting", func(t *testing.T) {
		store := NewStore()
		store.Append(Record{"A1", "a,b", `q"q`})

		want := testHeader + "\nA1,a,b,q\"q"
		if got := PreviewText(store); got != want {
			t.Errorf("PreviewText() = %q, want %q", got, want)
		}
	})
}
