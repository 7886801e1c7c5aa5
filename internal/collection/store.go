// Package collection keeps the ordered, in-memory list of ingested files.
package collection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mtiwari1/filehaven/internal/source"
)

// ErrDuplicateID is returned when a batch would introduce an id that is
// already present.
var ErrDuplicateID = errors.New("collection: duplicate file id")

// FileRecord is one ingested file with its classification and preview.
type FileRecord struct {
	ID         string
	Source     source.File
	CategoryID string

	// Preview is a data URI, empty when the file has none.
	Preview string
	AddedAt time.Time
}

// Store is an insertion-ordered collection of FileRecords with unique ids.
// Mutations are serialized; readers get copies.
type Store struct {
	mu      sync.RWMutex
	records []FileRecord
	index   map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// InsertBatch appends records in order. The batch is rejected as a whole
// when any id is empty, repeats inside the batch or already exists.
func (s *Store) InsertBatch(records []FileRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("collection: insert: empty file id")
		}
		if _, exists := s.index[r.ID]; exists || seen[r.ID] {
			return fmt.Errorf("collection: insert %s: %w", r.ID, ErrDuplicateID)
		}
		seen[r.ID] = true
	}

	for _, r := range records {
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

// RemoveByID deletes the record with the given id. Removing an absent id is
// a no-op and reports false.
func (s *Store) RemoveByID(id string) (FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return FileRecord{}, false
	}
	removed := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].ID] = j
	}
	return removed, true
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return FileRecord{}, false
	}
	return s.records[i], true
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every record in insertion order.
func (s *Store) All() []FileRecord {
	return s.Filtered("")
}

// Filtered returns the records of one category in insertion order, or all
// records when categoryID is empty.
func (s *Store) Filtered(categoryID string) []FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FileRecord, 0, len(s.records))
	for _, r := range s.records {
		if categoryID == "" || r.CategoryID == categoryID {
			out = append(out, r)
		}
	}
	return out
}

// CountsByCategory maps category ids to the number of records holding
// them. Categories without files are absent.
func (s *Store) CountsByCategory() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.records {
		counts[r.CategoryID]++
	}
	return counts
}

// Drain removes and returns every record, used on shutdown to release
// their handles.
func (s *Store) Drain() []FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.records
	s.records = nil
	s.index = make(map[string]int)
	return out
}
