package calls

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory record store for tests. It enforces the same
// transition rules as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{rows: map[string]Record{}} }

func (s *MemoryStore) Insert(ctx context.Context, r Record) error {
	if r.ID == "" || r.Status == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[r.ID]; exists {
		return ErrInvalidArgument
	}
	s.rows[r.ID] = r
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) GetByExternalID(ctx context.Context, externalCallID string) (Record, error) {
	if externalCallID == "" {
		return Record{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ExternalCallID == externalCallID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *MemoryStore) Complete(ctx context.Context, id string, c Completion) error {
	if id == "" || !Terminal(c.Status) {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != StatusOngoing {
		return ErrAlreadyFinal
	}
	ended := c.EndedAt
	dur := c.DurationSeconds
	r.EndedAt = &ended
	r.DurationSeconds = &dur
	r.Status = c.Status
	r.Summary = c.Summary
	s.rows[id] = r
	return nil
}

func (s *MemoryStore) History(ctx context.Context, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryItem, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, HistoryItem{Record: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
