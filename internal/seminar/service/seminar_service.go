// Package service creates seminars with their sessions and serves the public catalog.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seungwongo/EduFlow/internal/audit"
	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	identityservice "github.com/seungwongo/EduFlow/internal/identity/service"
	"github.com/seungwongo/EduFlow/internal/policy/engine"
	"github.com/seungwongo/EduFlow/internal/seminar/domain"
	"github.com/seungwongo/EduFlow/internal/seminar/repository"
	"github.com/seungwongo/EduFlow/internal/telemetry"
	telemetrydomain "github.com/seungwongo/EduFlow/internal/telemetry/domain"
)

// Sentinel errors for the seminar service; handler maps them to HTTP status codes.
var (
	ErrUnauthenticated = identityservice.ErrUnauthenticated
	ErrForbidden       = errors.New("not allowed to create seminars")
	ErrSeminarNotFound = errors.New("seminar not found")
	ErrInvalidSeminar  = domain.ErrInvalidSeminar
)

// ParticipantCounter reports approved roster sizes.
type ParticipantCounter interface {
	CountApproved(ctx context.Context, seminarID string) (int, error)
}

// SessionInput is one curriculum entry. Sessions are numbered by their position.
type SessionInput struct {
	Title       string
	Description string
}

// CreateInput describes a new seminar.
type CreateInput struct {
	Title           string
	Description     string
	MaxParticipants int
	Sessions        []SessionInput
}

// Detail is a seminar with its sessions and approved head count.
type Detail struct {
	Seminar          *domain.Seminar
	Sessions         []*domain.Session
	ParticipantCount int
	Full             bool
}

// SeminarService implements seminar creation, listing and lookup.
type SeminarService struct {
	seminars     repository.Repository
	participants ParticipantCounter
	policy       engine.Evaluator
	audit        audit.AuditLogger
	events       telemetry.EventEmitter
	nowF         func() time.Time
}

// NewSeminarService returns a SeminarService. auditLogger and events may be nil.
func NewSeminarService(
	seminars repository.Repository,
	participants ParticipantCounter,
	policy engine.Evaluator,
	auditLogger audit.AuditLogger,
	events telemetry.EventEmitter,
) *SeminarService {
	return &SeminarService{
		seminars:     seminars,
		participants: participants,
		policy:       policy,
		audit:        auditLogger,
		events:       events,
		nowF:         time.Now,
	}
}

// Create stores a seminar owned by caller, with sessions numbered 1..n in input order.
// Only instructors and admins may create seminars.
func (s *SeminarService) Create(ctx context.Context, caller *identitydomain.Identity, in CreateInput) (*Detail, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if s.policy == nil {
		return nil, ErrForbidden
	}
	ok, err := s.policy.Allow(ctx, engine.Request{Action: engine.ActionCreateSeminar, Caller: caller, OwnerID: caller.UserID})
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}

	seminar := &domain.Seminar{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		CreatedBy:       caller.UserID,
		MaxParticipants: in.MaxParticipants,
		CreatedAt:       s.nowF().UTC(),
	}
	if err := seminar.Validate(); err != nil {
		return nil, err
	}
	sessions := make([]*domain.Session, 0, len(in.Sessions))
	for i, si := range in.Sessions {
		sessions = append(sessions, &domain.Session{
			ID:            uuid.New().String(),
			SeminarID:     seminar.ID,
			SessionNumber: i + 1,
			Title:         strings.TrimSpace(si.Title),
			Description:   strings.TrimSpace(si.Description),
		})
	}
	if err := domain.ValidateSessions(seminar.ID, sessions); err != nil {
		return nil, err
	}
	if err := s.seminars.CreateWithSessions(ctx, seminar, sessions); err != nil {
		return nil, fmt.Errorf("create seminar: %w", err)
	}

	meta := map[string]string{"sessions": strconv.Itoa(len(sessions))}
	if s.audit != nil {
		s.audit.LogEvent(ctx, seminar.ID, caller.UserID, audit.ActionSeminarCreated, audit.ResourceSeminar, meta)
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventSeminarCreated, "seminar", meta)
	ev.SeminarID, ev.UserID = seminar.ID, caller.UserID
	telemetry.EmitAsync(s.events, ctx, ev)

	return &Detail{Seminar: seminar, Sessions: sessions}, nil
}

// List returns seminars newest first.
func (s *SeminarService) List(ctx context.Context, limit, offset int32) ([]*domain.Seminar, error) {
	list, err := s.seminars.ListSeminars(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list seminars: %w", err)
	}
	return list, nil
}

// Get returns the seminar with its sessions in order and the approved participant count.
func (s *SeminarService) Get(ctx context.Context, id string) (*Detail, error) {
	seminar, err := s.seminars.GetSeminar(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get seminar: %w", err)
	}
	if seminar == nil {
		return nil, ErrSeminarNotFound
	}
	sessions, err := s.seminars.ListSessions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	approved := 0
	if s.participants != nil {
		approved, err = s.participants.CountApproved(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("count participants: %w", err)
		}
	}
	return &Detail{
		Seminar:          seminar,
		Sessions:         sessions,
		ParticipantCount: approved,
		Full:             !seminar.HasCapacity(approved),
	}, nil
}
