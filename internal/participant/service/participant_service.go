// Package service manages seminar rosters: joining, leaving and owner-side moderation.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	attendancedomain "github.com/seungwongo/EduFlow/internal/attendance/domain"
	"github.com/seungwongo/EduFlow/internal/audit"
	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	identityservice "github.com/seungwongo/EduFlow/internal/identity/service"
	"github.com/seungwongo/EduFlow/internal/participant/domain"
	"github.com/seungwongo/EduFlow/internal/participant/repository"
	"github.com/seungwongo/EduFlow/internal/policy/engine"
	seminardomain "github.com/seungwongo/EduFlow/internal/seminar/domain"
	"github.com/seungwongo/EduFlow/internal/telemetry"
	telemetrydomain "github.com/seungwongo/EduFlow/internal/telemetry/domain"
)

// Sentinel errors for participant service; handler maps them to HTTP status codes.
var (
	ErrUnauthenticated     = identityservice.ErrUnauthenticated
	ErrSeminarNotFound     = errors.New("seminar not found")
	ErrAlreadyJoined       = errors.New("already joined this seminar")
	ErrSeminarFull         = errors.New("seminar is full")
	ErrNotJoined           = errors.New("not a participant of this seminar")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrForbidden           = errors.New("not allowed to manage this seminar")
)

// SeminarRepo is the minimal seminar repository needed by the participant service.
type SeminarRepo interface {
	GetSeminar(ctx context.Context, id string) (*seminardomain.Seminar, error)
	ListSessionIDs(ctx context.Context, seminarID string) ([]string, error)
}

// AttendanceCounter reports present counts for roster rates.
type AttendanceCounter interface {
	CountPresentByUser(ctx context.Context, sessionIDs []string) (map[string]int, error)
}

// RosterEntry is a participant with their attendance over the seminar's sessions.
type RosterEntry struct {
	Participant *domain.Participant
	Present     int
	// AttendanceRate is the rounded percentage of the seminar's sessions attended.
	AttendanceRate int
}

// ParticipantService implements join/leave and owner roster management.
type ParticipantService struct {
	seminars     SeminarRepo
	participants repository.Repository
	attendance   AttendanceCounter
	policy       engine.Evaluator
	audit        audit.AuditLogger
	events       telemetry.EventEmitter
	autoApprove  bool
	nowF         func() time.Time
}

// NewParticipantService returns a ParticipantService. With autoApprove, joins are approved immediately.
// auditLogger and events may be nil.
func NewParticipantService(
	seminars SeminarRepo,
	participants repository.Repository,
	attendance AttendanceCounter,
	policy engine.Evaluator,
	auditLogger audit.AuditLogger,
	events telemetry.EventEmitter,
	autoApprove bool,
) *ParticipantService {
	return &ParticipantService{
		seminars:     seminars,
		participants: participants,
		attendance:   attendance,
		policy:       policy,
		audit:        auditLogger,
		events:       events,
		autoApprove:  autoApprove,
		nowF:         time.Now,
	}
}

// Join adds caller to seminarID. The approved roster must have room even for pending joins.
func (s *ParticipantService) Join(ctx context.Context, caller *identitydomain.Identity, seminarID string) (*domain.Participant, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	seminar, err := s.getSeminar(ctx, seminarID)
	if err != nil {
		return nil, err
	}
	existing, err := s.participants.GetBySeminarAndUser(ctx, seminarID, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyJoined
	}
	status := domain.StatusPending
	if s.autoApprove {
		status = domain.StatusApproved
	}
	p := &domain.Participant{
		ID:        uuid.New().String(),
		SeminarID: seminarID,
		UserID:    caller.UserID,
		Status:    status,
		JoinedAt:  s.nowF().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.participants.Create(ctx, p, seminar.MaxParticipants); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, ErrAlreadyJoined
		case errors.Is(err, repository.ErrCapacityReached):
			return nil, ErrSeminarFull
		}
		return nil, fmt.Errorf("create participant: %w", err)
	}
	s.logEvent(ctx, seminarID, caller.UserID, audit.ActionJoin, map[string]string{"status": string(status)})
	ev := telemetrydomain.NewEvent(telemetrydomain.EventParticipantJoin, "participant", map[string]string{"status": string(status)})
	ev.SeminarID, ev.UserID = seminarID, caller.UserID
	telemetry.EmitAsync(s.events, ctx, ev)
	return p, nil
}

// Leave removes caller from seminarID.
func (s *ParticipantService) Leave(ctx context.Context, caller *identitydomain.Identity, seminarID string) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	deleted, err := s.participants.DeleteBySeminarAndUser(ctx, seminarID, caller.UserID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if !deleted {
		return ErrNotJoined
	}
	s.logEvent(ctx, seminarID, caller.UserID, audit.ActionLeave, nil)
	return nil
}

// Roster lists the seminar's participants with their attendance rate, for the owner or an admin.
func (s *ParticipantService) Roster(ctx context.Context, caller *identitydomain.Identity, seminarID string) ([]*RosterEntry, error) {
	if _, err := s.authorize(ctx, caller, seminarID); err != nil {
		return nil, err
	}
	list, err := s.participants.ListBySeminar(ctx, seminarID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	sessionIDs, err := s.seminars.ListSessionIDs(ctx, seminarID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	counts := map[string]int{}
	if len(sessionIDs) > 0 && s.attendance != nil {
		counts, err = s.attendance.CountPresentByUser(ctx, sessionIDs)
		if err != nil {
			return nil, fmt.Errorf("count attendance: %w", err)
		}
	}
	out := make([]*RosterEntry, 0, len(list))
	for _, p := range list {
		present := counts[p.UserID]
		out = append(out, &RosterEntry{
			Participant:    p,
			Present:        present,
			AttendanceRate: int(math.Round(attendancedomain.Rate(present, len(sessionIDs)))),
		})
	}
	return out, nil
}

// UpdateStatus sets a participant's status. Approving is refused when the seminar is at capacity.
func (s *ParticipantService) UpdateStatus(ctx context.Context, caller *identitydomain.Identity, seminarID, participantID, status string) (*domain.Participant, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	seminar, err := s.authorize(ctx, caller, seminarID)
	if err != nil {
		return nil, err
	}
	current, err := s.participants.GetByID(ctx, seminarID, participantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if current == nil {
		return nil, ErrParticipantNotFound
	}
	if st == current.Status {
		return current, nil
	}
	updated, err := s.participants.UpdateStatus(ctx, seminarID, participantID, st, seminar.MaxParticipants)
	if err != nil {
		if errors.Is(err, repository.ErrCapacityReached) {
			return nil, ErrSeminarFull
		}
		return nil, fmt.Errorf("update participant: %w", err)
	}
	if updated == nil {
		return nil, ErrParticipantNotFound
	}
	s.logEvent(ctx, seminarID, caller.UserID, audit.ActionStatusChanged,
		map[string]string{"participant_id": participantID, "from": string(current.Status), "to": string(st)})
	return updated, nil
}

// Remove deletes a participant from the seminar's roster.
func (s *ParticipantService) Remove(ctx context.Context, caller *identitydomain.Identity, seminarID, participantID string) error {
	if _, err := s.authorize(ctx, caller, seminarID); err != nil {
		return err
	}
	deleted, err := s.participants.Delete(ctx, seminarID, participantID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if !deleted {
		return ErrParticipantNotFound
	}
	s.logEvent(ctx, seminarID, caller.UserID, audit.ActionRemoved, map[string]string{"participant_id": participantID})
	return nil
}

func (s *ParticipantService) getSeminar(ctx context.Context, seminarID string) (*seminardomain.Seminar, error) {
	seminar, err := s.seminars.GetSeminar(ctx, seminarID)
	if err != nil {
		return nil, fmt.Errorf("get seminar: %w", err)
	}
	if seminar == nil {
		return nil, ErrSeminarNotFound
	}
	return seminar, nil
}

// authorize checks that caller may manage seminarID's roster.
// It returns the seminar on success.
func (s *ParticipantService) authorize(ctx context.Context, caller *identitydomain.Identity, seminarID string) (*seminardomain.Seminar, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	seminar, err := s.getSeminar(ctx, seminarID)
	if err != nil {
		return nil, err
	}
	if s.policy == nil {
		return nil, ErrForbidden
	}
	ok, err := s.policy.Allow(ctx, engine.Request{Action: engine.ActionManageRoster, Caller: caller, OwnerID: seminar.CreatedBy})
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}
	return seminar, nil
}

func (s *ParticipantService) logEvent(ctx context.Context, seminarID, userID, action string, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, seminarID, userID, action, audit.ResourceParticipant, metadata)
}
