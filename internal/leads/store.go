package leads

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("leads: not found")
	ErrInvalidArgument = errors.New("leads: invalid argument")
)

// Store abstracts lead persistence. The Postgres implementation is the real
// one; MemoryStore backs tests.
type Store interface {
	GetByID(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context) ([]Lead, error)

	// UpdateQualification applies a post-call qualification outcome.
	UpdateQualification(ctx context.Context, id string, status Status, notes string) error
}

// PGStore persists leads in Postgres via database/sql.
type PGStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db, clock: time.Now}
}

const leadColumns = `id, name, business_name, COALESCE(address,''), phone, email, status, COALESCE(notes,''), COALESCE(source,''), created_at, updated_at`

func (s *PGStore) GetByID(ctx context.Context, id string) (Lead, error) {
	if id == "" {
		return Lead{}, ErrInvalidArgument
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

func (s *PGStore) List(ctx context.Context) ([]Lead, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateQualification(ctx context.Context, id string, status Status, notes string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	if !ValidStatus(status) {
		return ErrInvalidArgument
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = $1, notes = $2, updated_at = $3 WHERE id = $4`,
		string(status), notes, s.clock().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(r rowScanner) (Lead, error) {
	var l Lead
	err := r.Scan(
		&l.ID, &l.Name, &l.BusinessName, &l.Address, &l.Phone, &l.Email,
		&l.Status, &l.Notes, &l.Source, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return l, nil
}
