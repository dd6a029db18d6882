package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seungwongo/EduFlow/internal/attendance/domain"
	"github.com/seungwongo/EduFlow/internal/db"
)

// uniqueConstraint is the (session_id, user_id) constraint from migration 000002.
const uniqueConstraint = "attendance_session_user_key"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an attendance ledger that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Exists reports whether a record exists for (sessionID, userID).
func (r *PostgresRepository) Exists(ctx context.Context, sessionID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendance WHERE session_id = $1 AND user_id = $2)`,
		sessionID, userID).Scan(&exists)
	return exists, err
}

// Append inserts the record unless one already exists for its (session, user) pair.
// Both the ON CONFLICT no-op and a raced unique violation surface as ErrDuplicateRecord.
func (r *PostgresRepository) Append(ctx context.Context, rec *domain.Record) error {
	if rec == nil || rec.ID == "" || rec.SessionID == "" || rec.UserID == "" {
		return errors.New("attendance: id, session_id, and user_id are required")
	}
	status := rec.Status
	if status == "" {
		status = domain.StatusPresent
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance (id, session_id, user_id, status, checked_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT ON CONSTRAINT `+uniqueConstraint+` DO NOTHING`,
		rec.ID, rec.SessionID, rec.UserID, string(status), rec.CheckedAt)
	if err != nil {
		if db.IsUniqueViolation(err, uniqueConstraint) {
			return ErrDuplicateRecord
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateRecord
	}
	return nil
}

// CountPresent counts the user's present records among sessionIDs. Empty sessionIDs yields 0.
func (r *PostgresRepository) CountPresent(ctx context.Context, userID string, sessionIDs []string) (int, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM attendance WHERE user_id = $1 AND status = 'present' AND session_id = ANY($2)`,
		userID, sessionIDs).Scan(&n)
	return n, err
}

// CountPresentByUser counts present records among sessionIDs grouped by user.
func (r *PostgresRepository) CountPresentByUser(ctx context.Context, sessionIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	if len(sessionIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, count(*) FROM attendance WHERE status = 'present' AND session_id = ANY($1) GROUP BY user_id`,
		sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		var n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		out[userID] = n
	}
	return out, rows.Err()
}

// ListBySession returns the session's records in check-in order.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, status, checked_at FROM attendance WHERE session_id = $1 ORDER BY checked_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &status, &rec.CheckedAt); err != nil {
			return nil, err
		}
		rec.Status = domain.Status(status)
		out = append(out, &rec)
	}
	return out, rows.Err()
}
