package repository

import (
	"context"
	"errors"

	"github.com/seungwongo/EduFlow/internal/attendance/domain"
)

// ErrDuplicateRecord is returned by Append when a record for (session, user) already exists.
// It stays inside the attendance packages; callers see ErrAlreadyCheckedIn.
var ErrDuplicateRecord = errors.New("attendance record already exists")

// Ledger is the append-only store of attendance records.
type Ledger interface {
	Exists(ctx context.Context, sessionID, userID string) (bool, error)
	// Append inserts r if no record exists for (r.SessionID, r.UserID), atomically.
	Append(ctx context.Context, r *domain.Record) error
	// CountPresent counts the user's present records among sessionIDs.
	CountPresent(ctx context.Context, userID string, sessionIDs []string) (int, error)
	// CountPresentByUser counts present records among sessionIDs grouped by user.
	CountPresentByUser(ctx context.Context, sessionIDs []string) (map[string]int, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Record, error)
}
