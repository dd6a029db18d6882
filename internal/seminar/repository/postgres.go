package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seungwongo/EduFlow/internal/seminar/domain"
)

const (
	seminarColumns = `id, title, description, created_by, max_participants, created_at`
	sessionColumns = `id, seminar_id, session_number, title, description`
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a seminar repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeminar(row rowScanner) (*domain.Seminar, error) {
	var s domain.Seminar
	if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedBy, &s.MaxParticipants, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(&s.ID, &s.SeminarID, &s.SessionNumber, &s.Title, &s.Description); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSeminar returns the seminar for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetSeminar(ctx context.Context, id string) (*domain.Seminar, error) {
	s, err := scanSeminar(r.db.QueryRowContext(ctx, `SELECT `+seminarColumns+` FROM seminars WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// GetSession returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListSessionIDs returns the session IDs of a seminar ordered by session number.
func (r *PostgresRepository) ListSessionIDs(ctx context.Context, seminarID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE seminar_id = $1 ORDER BY session_number`, seminarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListSessions returns the seminar's sessions ordered by session number.
func (r *PostgresRepository) ListSessions(ctx context.Context, seminarID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE seminar_id = $1 ORDER BY session_number`, seminarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSeminars returns seminars newest first, paginated.
func (r *PostgresRepository) ListSeminars(ctx context.Context, limit, offset int32) ([]*domain.Seminar, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seminarColumns+` FROM seminars ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Seminar
	for rows.Next() {
		s, err := scanSeminar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateWithSessions inserts the seminar and then each session, rolling back on any failure.
func (r *PostgresRepository) CreateWithSessions(ctx context.Context, s *domain.Seminar, sessions []*domain.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO seminars (`+seminarColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Title, s.Description, s.CreatedBy, s.MaxParticipants, s.CreatedAt); err != nil {
		return err
	}
	for _, sess := range sessions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5)`,
			sess.ID, sess.SeminarID, sess.SessionNumber, sess.Title, sess.Description); err != nil {
			return err
		}
	}
	return tx.Commit()
}
