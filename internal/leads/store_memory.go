package leads

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory lead store for tests and early development.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[string]Lead
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]Lead{}, clock: time.Now}
}

// Put inserts or replaces a lead. Test helper.
func (s *MemoryStore) Put(l Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[l.ID] = l
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Lead, error) {
	if id == "" {
		return Lead{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rows[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Lead, 0, len(s.rows))
	for _, l := range s.rows {
		out = append(out, l)
	}
	return out, nil
}

func (s *MemoryStore) UpdateQualification(ctx context.Context, id string, status Status, notes string) error {
	if id == "" || !ValidStatus(status) {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	l.Notes = notes
	l.UpdatedAt = s.clock().UTC()
	s.rows[id] = l
	return nil
}
