package repository

import (
	"context"

	"github.com/seungwongo/EduFlow/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListBySeminar returns the seminar's entries newest first.
	ListBySeminar(ctx context.Context, seminarID string, limit, offset int32) ([]*domain.AuditLog, error)
}
