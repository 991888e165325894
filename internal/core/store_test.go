package core

import (
	"reflect"
	"testing"
)

func TestStore(t *testing.T) {
	t.Run("header is fixed", func(t *testing.T) {
		store := NewStore()
		h := store.Header()
		h[0] = "changed"
		if store.Header()[0] != "卡片序號" {
			t.Error("Header() exposed internal schema")
		}
	})

	t.Run("append preserves order", func(t *testing.T) {
		store := NewStore()
		for _, id := range []string{"1", "2", "3"} {
			store.Append(sampleRecord(id))
		}
		var ids []string
		for _, r := range store.Records() {
			ids = append(ids, r[ColIdentifier])
		}
		if !reflect.DeepEqual(ids, []string{"1", "2", "3"}) {
			t.Errorf("order = %v", ids)
		}
	})

	t.Run("replace discards previous contents", func(t *testing.T) {
		store := NewStore()
		store.Append(sampleRecord("old"))
		store.Replace([]Record{sampleRecord("new1"), sampleRecord("new2")})
		if store.Len() != 2 || store.Records()[0][0] != "new1" {
			t.Errorf("store = %q", store.Records())
		}
	})

	t.Run("caller slices are not aliased", func(t *testing.T) {
		store := NewStore()
		rec := sampleRecord("A")
		store.Append(rec)
		rec[0] = "mutated"

		got := store.Records()
		got[0][1] = "mutated"

		if r := store.Records()[0]; r[0] != "A" || r[1] == "mutated" {
			t.Errorf("store record = %q", r)
		}
	})

	t.Run("withRecord does not modify the store", func(t *testing.T) {
		store := NewStore()
		store.Append(sampleRecord("A"))
		merged := store.withRecord(sampleRecord("B"))
		if len(merged) != 2 || merged[1][0] != "B" {
			t.Errorf("merged = %q", merged)
		}
		if store.Len() != 1 {
			t.Errorf("store len = %d, want 1", store.Len())
		}
	})
}
