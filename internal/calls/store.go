package calls

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")

	// ErrAlreadyFinal means the record is in a terminal status; terminal
	// updates are applied at most once.
	ErrAlreadyFinal = errors.New("calls: record already finalized")
)

type Store interface {
	Insert(ctx context.Context, r Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	GetByExternalID(ctx context.Context, externalCallID string) (Record, error)

	// Complete applies the one-shot terminal transition. ErrAlreadyFinal when
	// the record left "ongoing" earlier; ErrNotFound when no record matches.
	Complete(ctx context.Context, id string, c Completion) error

	History(ctx context.Context, limit int) ([]HistoryItem, error)
}

// PGStore persists call records in Postgres.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

const recordColumns = `id, COALESCE(lead_id,''), COALESCE(ultravox_call_id,''), started_at, ended_at, duration_seconds, status, COALESCE(summary,'')`

func (s *PGStore) Insert(ctx context.Context, r Record) error {
	if r.ID == "" || r.Status == "" {
		return ErrInvalidArgument
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calls (id, lead_id, ultravox_call_id, started_at, status, summary)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, $6)`,
		r.ID, r.LeadID, r.ExternalCallID, r.StartedAt, string(r.Status), r.Summary,
	)
	return err
}

func (s *PGStore) GetByID(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrInvalidArgument
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM calls WHERE id = $1`, id)
	return scanRecord(row)
}

func (s *PGStore) GetByExternalID(ctx context.Context, externalCallID string) (Record, error) {
	if externalCallID == "" {
		return Record{}, ErrInvalidArgument
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM calls WHERE ultravox_call_id = $1`, externalCallID)
	return scanRecord(row)
}

func (s *PGStore) Complete(ctx context.Context, id string, c Completion) error {
	if id == "" || !Terminal(c.Status) {
		return ErrInvalidArgument
	}
	// The status predicate enforces the one-way transition at the row level;
	// a concurrent webhook and manual finalize cannot both win.
	res, err := s.db.ExecContext(ctx, `
		UPDATE calls
		SET ended_at = $1, duration_seconds = $2, status = $3, summary = $4
		WHERE id = $5 AND status = $6`,
		c.EndedAt, c.DurationSeconds, string(c.Status), c.Summary, id, string(StatusOngoing),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyFinal
	}
	return nil
}

func (s *PGStore) History(ctx context.Context, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, COALESCE(c.lead_id,''), COALESCE(c.ultravox_call_id,''),
		       c.started_at, c.ended_at, c.duration_seconds, c.status, COALESCE(c.summary,''),
		       COALESCE(l.name,''), COALESCE(l.business_name,'')
		FROM calls c
		LEFT JOIN leads l ON l.id = c.lead_id
		ORDER BY c.started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryItem
	for rows.Next() {
		var h HistoryItem
		err := rows.Scan(
			&h.ID, &h.LeadID, &h.ExternalCallID,
			&h.StartedAt, &h.EndedAt, &h.DurationSeconds, &h.Status, &h.Summary,
			&h.LeadName, &h.LeadBusiness,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(r rowScanner) (Record, error) {
	var rec Record
	err := r.Scan(
		&rec.ID, &rec.LeadID, &rec.ExternalCallID,
		&rec.StartedAt, &rec.EndedAt, &rec.DurationSeconds, &rec.Status, &rec.Summary,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}
