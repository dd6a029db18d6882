package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seungwongo/EduFlow/internal/db"
	"github.com/seungwongo/EduFlow/internal/participant/domain"
)

const participantColumns = `id, seminar_id, user_id, status, joined_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a participant repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	var p domain.Participant
	var status string
	if err := row.Scan(&p.ID, &p.SeminarID, &p.UserID, &status, &p.JoinedAt); err != nil {
		return nil, err
	}
	p.Status = domain.Status(status)
	return &p, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetByID returns the participant with id in seminarID, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, seminarID, id string) (*domain.Participant, error) {
	return r.getOne(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE seminar_id = $1 AND id = $2`, seminarID, id)
}

// GetBySeminarAndUser returns the participant row for the user in the seminar, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetBySeminarAndUser(ctx context.Context, seminarID, userID string) (*domain.Participant, error) {
	return r.getOne(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE seminar_id = $1 AND user_id = $2`, seminarID, userID)
}

// ListBySeminar returns all participants of the seminar, most recent joins first.
func (r *PostgresRepository) ListBySeminar(ctx context.Context, seminarID string) ([]*domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE seminar_id = $1 ORDER BY joined_at DESC`, seminarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountApproved returns the number of approved participants in the seminar.
func (r *PostgresRepository) CountApproved(ctx context.Context, seminarID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM participants WHERE seminar_id = $1 AND status = 'approved'`, seminarID).Scan(&n)
	return n, err
}

// Create persists p. Returns ErrAlreadyExists when (seminar_id, user_id) is taken and
// ErrCapacityReached when the seminar is full.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Participant, capacity int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := r.withinCapacity(ctx, p.SeminarID, "", capacity, func(q executor) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO participants (`+participantColumns+`) VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.SeminarID, p.UserID, string(p.Status), p.JoinedAt)
		return err
	})
	if db.IsUniqueViolation(err, "") {
		return ErrAlreadyExists
	}
	return err
}

// UpdateStatus sets the status and returns the updated row, or nil if no such participant exists.
// Capacity applies only when approving.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, seminarID, id string, status domain.Status, capacity int) (*domain.Participant, error) {
	if status != domain.StatusApproved {
		capacity = 0
	}
	var out *domain.Participant
	err := r.withinCapacity(ctx, seminarID, id, capacity, func(q executor) error {
		p, err := scanParticipant(q.QueryRowContext(ctx,
			`UPDATE participants SET status = $3 WHERE seminar_id = $1 AND id = $2 RETURNING `+participantColumns,
			seminarID, id, string(status)))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// executor is the subset of *sql.DB and *sql.Tx the capacity-guarded writes need.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withinCapacity runs write directly when capacity <= 0. Otherwise it locks the seminar row,
// counts approved participants other than excludeID, and runs write in the same transaction
// only if the count is below capacity.
func (r *PostgresRepository) withinCapacity(ctx context.Context, seminarID, excludeID string, capacity int, write func(executor) error) error {
	if capacity <= 0 {
		return write(r.db)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM seminars WHERE id = $1 FOR UPDATE`, seminarID); err != nil {
		return err
	}
	var approved int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM participants WHERE seminar_id = $1 AND status = 'approved' AND id <> $2`,
		seminarID, excludeID).Scan(&approved); err != nil {
		return err
	}
	if approved >= capacity {
		return ErrCapacityReached
	}
	if err := write(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the participant and reports whether a row was deleted.
func (r *PostgresRepository) Delete(ctx context.Context, seminarID, id string) (bool, error) {
	return r.exec(ctx, `DELETE FROM participants WHERE seminar_id = $1 AND id = $2`, seminarID, id)
}

// DeleteBySeminarAndUser removes the user's row from the seminar and reports whether a row was deleted.
func (r *PostgresRepository) DeleteBySeminarAndUser(ctx context.Context, seminarID, userID string) (bool, error) {
	return r.exec(ctx, `DELETE FROM participants WHERE seminar_id = $1 AND user_id = $2`, seminarID, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
