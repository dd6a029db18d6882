package domain

import (
	"errors"
	"time"
)

// Status is a participant's approval state in a seminar.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ErrInvalidStatus is returned for a status outside pending/approved/rejected.
var ErrInvalidStatus = errors.New("invalid participant status")

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Participant links a user to a seminar with an approval status.
type Participant struct {
	ID        string
	SeminarID string
	UserID    string
	Status    Status
	JoinedAt  time.Time
}

// CanCheckIn reports whether the participant is eligible to record attendance.
func (p *Participant) CanCheckIn() bool {
	return p != nil && p.Status == StatusApproved
}

// Validate checks required fields before persistence.
func (p *Participant) Validate() error {
	if p.ID == "" || p.SeminarID == "" || p.UserID == "" {
		return errors.New("participant: id, seminar_id, and user_id are required")
	}
	if _, err := ParseStatus(string(p.Status)); err != nil {
		return err
	}
	return nil
}
