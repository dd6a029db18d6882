package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Limits on seminar input.
const (
	MaxTitleLength = 200
	MaxSessions    = 100
)

// ErrInvalidSeminar is returned by Validate for malformed seminars or sessions.
var ErrInvalidSeminar = errors.New("invalid seminar")

// Seminar is the aggregate that owns sessions and the participant roster.
type Seminar struct {
	ID              string
	Title           string
	Description     string
	CreatedBy       string // owner (instructor) user ID
	MaxParticipants int    // 0 means unlimited
	CreatedAt       time.Time
}

// OwnedBy reports whether userID created the seminar.
func (s *Seminar) OwnedBy(userID string) bool {
	return s != nil && userID != "" && s.CreatedBy == userID
}

// HasCapacity reports whether another approved participant fits, given the current approved count.
func (s *Seminar) HasCapacity(approved int) bool {
	if s == nil || s.MaxParticipants <= 0 {
		return true
	}
	return approved < s.MaxParticipants
}

// Validate checks the fields a new seminar must carry.
func (s *Seminar) Validate() error {
	if s.ID == "" || s.CreatedBy == "" {
		return fmt.Errorf("%w: id and created_by are required", ErrInvalidSeminar)
	}
	if err := validTitle("title", s.Title); err != nil {
		return err
	}
	if s.MaxParticipants < 0 {
		return fmt.Errorf("%w: max participants must be >= 0", ErrInvalidSeminar)
	}
	return nil
}

// Session is one scheduled meeting of a seminar. Never mutated by check-in.
type Session struct {
	ID            string
	SeminarID     string
	SessionNumber int
	Title         string
	Description   string
}

func validTitle(field, title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidSeminar, field)
	}
	if len([]rune(t)) > MaxTitleLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidSeminar, field, MaxTitleLength)
	}
	return nil
}

// ValidateSessions checks that sessions belong to seminarID, are numbered 1..n in order, and are titled.
func ValidateSessions(seminarID string, sessions []*Session) error {
	if len(sessions) > MaxSessions {
		return fmt.Errorf("%w: at most %d sessions", ErrInvalidSeminar, MaxSessions)
	}
	for i, s := range sessions {
		if s.ID == "" || s.SeminarID != seminarID {
			return fmt.Errorf("%w: session %d does not belong to the seminar", ErrInvalidSeminar, i+1)
		}
		if s.SessionNumber != i+1 {
			return fmt.Errorf("%w: session %d is numbered %d", ErrInvalidSeminar, i+1, s.SessionNumber)
		}
		if err := validTitle(fmt.Sprintf("session %d title", i+1), s.Title); err != nil {
			return err
		}
	}
	return nil
}
