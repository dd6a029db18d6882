package repository

import (
	"context"
	"errors"

	"github.com/seungwongo/EduFlow/internal/participant/domain"
)

var (
	// ErrAlreadyExists is returned by Create when the user already has a row for the seminar.
	ErrAlreadyExists = errors.New("participant already exists")
	// ErrCapacityReached is returned when the approved roster already holds capacity participants.
	ErrCapacityReached = errors.New("seminar capacity reached")
)

// Repository defines persistence for seminar participants.
type Repository interface {
	GetByID(ctx context.Context, seminarID, id string) (*domain.Participant, error)
	GetBySeminarAndUser(ctx context.Context, seminarID, userID string) (*domain.Participant, error)
	ListBySeminar(ctx context.Context, seminarID string) ([]*domain.Participant, error)
	CountApproved(ctx context.Context, seminarID string) (int, error)
	// Create inserts p if the approved roster is below capacity (0 means unlimited).
	// The count and the insert are serialized per seminar.
	Create(ctx context.Context, p *domain.Participant, capacity int) error
	// UpdateStatus sets the status, enforcing capacity the same way when status is approved.
	UpdateStatus(ctx context.Context, seminarID, id string, status domain.Status, capacity int) (*domain.Participant, error)
	Delete(ctx context.Context, seminarID, id string) (bool, error)
	DeleteBySeminarAndUser(ctx context.Context, seminarID, userID string) (bool, error)
}
