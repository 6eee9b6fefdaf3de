package agents

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var (
	ErrNotFound        = errors.New("agents: not found")
	ErrInvalidArgument = errors.New("agents: invalid argument")
)

type Store interface {
	GetByID(ctx context.Context, id string) (Persona, error)
}

// PGStore reads personas from Postgres.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (s *PGStore) GetByID(ctx context.Context, id string) (Persona, error) {
	if id == "" {
		return Persona{}, ErrInvalidArgument
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, tone, script, voice_id,
		       COALESCE(voice_speed, 1.0), COALESCE(language_style,''),
		       created_at, updated_at
		FROM agents WHERE id = $1`, id)

	var p Persona
	err := row.Scan(
		&p.ID, &p.Name, &p.Tone, &p.Script, &p.VoiceID,
		&p.VoiceSpeed, &p.LanguageStyle, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Persona{}, ErrNotFound
	}
	if err != nil {
		return Persona{}, err
	}
	return p, nil
}

// MemoryStore backs tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Persona
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{rows: map[string]Persona{}} }

func (s *MemoryStore) Put(p Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.ID] = p
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Persona, error) {
	if id == "" {
		return Persona{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return Persona{}, ErrNotFound
	}
	return p, nil
}
