package repository

import (
	"context"

	"github.com/seungwongo/EduFlow/internal/seminar/domain"
)

// Repository defines persistence for seminars and their sessions.
type Repository interface {
	GetSeminar(ctx context.Context, id string) (*domain.Seminar, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessionIDs(ctx context.Context, seminarID string) ([]string, error)
	// ListSessions returns the seminar's sessions ordered by session number.
	ListSessions(ctx context.Context, seminarID string) ([]*domain.Session, error)
	// ListSeminars returns seminars newest first.
	ListSeminars(ctx context.Context, limit, offset int32) ([]*domain.Seminar, error)
	// CreateWithSessions persists the seminar and its sessions in one transaction.
	CreateWithSessions(ctx context.Context, s *domain.Seminar, sessions []*domain.Session) error
}
