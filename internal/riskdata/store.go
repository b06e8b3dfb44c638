package riskdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
)

// Store publishes the current risk table to readers and accepts out-of-band
// row replacements. Readers never block; each refresh swaps in a new table.
type Store struct {
	current atomic.Pointer[Table]
	mu      sync.Mutex // serializes writers
}

// NewStore creates a store serving initial. A nil table leaves the store
// unready until the first LoadBatch.
func NewStore(initial *Table) *Store {
	s := &Store{}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Lookup reads from the table current at the time of the call.
func (s *Store) Lookup(city string, disease domain.DiseaseID, month int) (float64, bool) {
	return s.current.Load().Lookup(city, disease, month)
}

// Snapshot returns the current table.
func (s *Store) Snapshot() *Table {
	return s.current.Load()
}

// LoadBatch applies updates atomically: readers see either none or all of them.
func (s *Store) LoadBatch(ctx context.Context, updates []Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(s.current.Load().With(updates...))
	return nil
}

// CheckReadiness returns nil once a table has been installed.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("risk table not loaded")
	}
	return nil
}

// Rows returns the number of (city, disease) rows in the current table.
func (s *Store) Rows() int {
	return s.current.Load().Len()
}
