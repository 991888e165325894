package core

import "sync"

// Store is the ordered record table owned by one session.
// Insertion order is display and export order.
//
// Readers always receive deep copies, so a caller can never mutate a record
// that is still held by the store.
type Store struct {
	mu      sync.RWMutex
	records []Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Header returns the fixed column schema.
func (s *Store) Header() []string {
	return Columns()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a snapshot of every record in order.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

// Replace swaps the whole contents of the store for records.
func (s *Store) Replace(records []Record) {
	next := cloneRecords(records)
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
}

// Append adds one record at the end.
func (s *Store) Append(rec Record) {
	rec = rec.Clone()
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// withRecord returns a snapshot of the store followed by rec, without
// modifying the store.
func (s *Store) withRecord(rec Record) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records)+1)
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return append(out, rec.Clone())
}
