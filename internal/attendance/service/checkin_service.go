// Package service implements attendance check-in, code issuance and attendance-rate reporting.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/seungwongo/EduFlow/internal/attendance/code"
	"github.com/seungwongo/EduFlow/internal/attendance/domain"
	"github.com/seungwongo/EduFlow/internal/attendance/repository"
	"github.com/seungwongo/EduFlow/internal/audit"
	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	identityservice "github.com/seungwongo/EduFlow/internal/identity/service"
	participantdomain "github.com/seungwongo/EduFlow/internal/participant/domain"
	"github.com/seungwongo/EduFlow/internal/policy/engine"
	seminardomain "github.com/seungwongo/EduFlow/internal/seminar/domain"
	"github.com/seungwongo/EduFlow/internal/telemetry"
	telemetrydomain "github.com/seungwongo/EduFlow/internal/telemetry/domain"
)

const instrumentationName = "github.com/seungwongo/EduFlow/internal/attendance/service"

// Sentinel errors for the check-in service; handlers map them to HTTP status codes.
var (
	ErrUnauthenticated  = identityservice.ErrUnauthenticated
	ErrInvalidCode      = errors.New("invalid attendance code")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotAParticipant  = errors.New("not an approved participant of this seminar")
	ErrAlreadyCheckedIn = errors.New("already checked in for this session")
	ErrForbidden        = errors.New("not allowed to manage this session")
	ErrTooManyAttempts  = errors.New("too many check-in attempts, try again later")
)

// Authenticator resolves a bearer token into the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identitydomain.Identity, error)
}

// SessionRegistry is the minimal seminar repository needed by the check-in service.
type SessionRegistry interface {
	GetSession(ctx context.Context, id string) (*seminardomain.Session, error)
	GetSeminar(ctx context.Context, id string) (*seminardomain.Seminar, error)
}

// ParticipantRegistry is the minimal participant repository needed by the check-in service.
type ParticipantRegistry interface {
	GetBySeminarAndUser(ctx context.Context, seminarID, userID string) (*participantdomain.Participant, error)
	ListBySeminar(ctx context.Context, seminarID string) ([]*participantdomain.Participant, error)
}

// AttemptLimiter bounds check-in attempts per user and session.
type AttemptLimiter interface {
	Allow(ctx context.Context, userID, sessionID string) (bool, error)
	// Reset clears the user's counter once attendance is on record.
	Reset(ctx context.Context, userID, sessionID string) error
}

// Deps holds the check-in service dependencies. Limiter, Events and Audit are optional.
type Deps struct {
	Directory    Authenticator
	Sessions     SessionRegistry
	Participants ParticipantRegistry
	Ledger       repository.Ledger
	Codes        *code.Generator
	Policy       engine.Evaluator
	Limiter      AttemptLimiter
	Events       telemetry.EventEmitter
	Audit        audit.AuditLogger
	// Origin is the public web origin used for check-in URLs when the caller passes none.
	Origin string
}

// CheckinResult confirms a recorded attendance.
type CheckinResult struct {
	SessionID string
	UserID    string
	CheckedAt time.Time
}

// Summary is the attendance picture of one session for its instructor.
type Summary struct {
	SessionID string
	SeminarID string
	Approved  int
	Present   int
	Absent    int
	Records   []*domain.Record
}

// CheckinService validates check-ins against today's code and records attendance.
type CheckinService struct {
	deps     Deps
	nowF     func() time.Time
	tracer   trace.Tracer
	checkins metric.Int64Counter
}

// NewCheckinService returns a CheckinService. Codes defaults to a UTC generator.
func NewCheckinService(deps Deps) *CheckinService {
	if deps.Codes == nil {
		deps.Codes = code.NewGenerator(time.UTC)
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter("eduflow.attendance.checkins",
		metric.WithDescription("Check-in submissions by outcome"))
	if err != nil {
		log.Printf("attendance: create checkin counter: %v", err)
	}
	return &CheckinService{
		deps:     deps,
		nowF:     time.Now,
		tracer:   otel.Tracer(instrumentationName),
		checkins: counter,
	}
}

// SubmitCheckin records attendance for the caller in sessionID if submitted matches today's code.
// Checks run in order and stop at the first failure: authentication, attempt limit, code, session,
// approved participation, existing record. A lost insert race also yields ErrAlreadyCheckedIn.
func (s *CheckinService) SubmitCheckin(ctx context.Context, token, sessionID, submitted string) (*CheckinResult, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.SubmitCheckin", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	res, scope, err := s.submit(ctx, token, sessionID, submitted)
	s.recordOutcome(ctx, span, err)
	if err == nil || errors.Is(err, ErrAlreadyCheckedIn) {
		s.resetAttempts(ctx, scope.userID, sessionID)
	}
	if err != nil {
		if scope.userID != "" && isRejection(err) {
			ev := telemetrydomain.NewEvent(telemetrydomain.EventCheckinRejected, "attendance", map[string]string{"outcome": outcome(err)})
			ev.SeminarID, ev.SessionID, ev.UserID = scope.seminarID, sessionID, scope.userID
			telemetry.EmitAsync(s.deps.Events, ctx, ev)
		}
		return nil, err
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventCheckedIn, "attendance", nil)
	ev.SeminarID, ev.SessionID, ev.UserID, ev.CreatedAt = scope.seminarID, res.SessionID, res.UserID, res.CheckedAt
	telemetry.EmitAsync(s.deps.Events, ctx, ev)
	if s.deps.Audit != nil {
		s.deps.Audit.LogEvent(ctx, scope.seminarID, res.UserID, audit.ActionCheckIn, audit.ResourceAttendance,
			map[string]string{"session_id": res.SessionID})
	}
	return res, nil
}

// checkinScope is what submit learned about the attempt before it stopped.
type checkinScope struct {
	userID    string
	seminarID string
}

func (s *CheckinService) submit(ctx context.Context, token, sessionID, submitted string) (*CheckinResult, checkinScope, error) {
	var scope checkinScope
	caller, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, scope, err
	}
	scope.userID = caller.UserID
	if s.deps.Limiter != nil {
		ok, err := s.deps.Limiter.Allow(ctx, caller.UserID, sessionID)
		if err != nil {
			log.Printf("attendance: attempt limiter unavailable, allowing: %v", err)
		} else if !ok {
			return nil, scope, ErrTooManyAttempts
		}
	}
	if !s.deps.Codes.Matches(sessionID, submitted) {
		return nil, scope, ErrInvalidCode
	}
	session, err := s.deps.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, scope, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, scope, ErrSessionNotFound
	}
	scope.seminarID = session.SeminarID
	p, err := s.deps.Participants.GetBySeminarAndUser(ctx, session.SeminarID, caller.UserID)
	if err != nil {
		return nil, scope, fmt.Errorf("get participant: %w", err)
	}
	if !p.CanCheckIn() {
		return nil, scope, ErrNotAParticipant
	}
	exists, err := s.deps.Ledger.Exists(ctx, sessionID, caller.UserID)
	if err != nil {
		return nil, scope, fmt.Errorf("check attendance: %w", err)
	}
	if exists {
		return nil, scope, ErrAlreadyCheckedIn
	}
	rec := &domain.Record{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    caller.UserID,
		Status:    domain.StatusPresent,
		CheckedAt: s.nowF().UTC(),
	}
	if err := s.deps.Ledger.Append(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			return nil, scope, ErrAlreadyCheckedIn
		}
		return nil, scope, fmt.Errorf("append attendance: %w", err)
	}
	return &CheckinResult{SessionID: rec.SessionID, UserID: rec.UserID, CheckedAt: rec.CheckedAt}, scope, nil
}

// GenerateCode returns today's code and check-in URL for sessionID. The caller must be allowed to
// issue codes for the session's seminar. origin overrides the configured public origin when non-empty.
func (s *CheckinService) GenerateCode(ctx context.Context, token, sessionID, origin string) (*code.Issued, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.GenerateCode", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	caller, session, err := s.authorizeSession(ctx, token, sessionID, engine.ActionIssueCode)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if origin == "" {
		origin = s.deps.Origin
	}
	issued, err := s.deps.Codes.Issue(origin, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventCodeIssued, "attendance", map[string]string{"date": issued.Date})
	ev.SeminarID, ev.SessionID, ev.UserID = session.SeminarID, sessionID, caller.UserID
	telemetry.EmitAsync(s.deps.Events, ctx, ev)
	if s.deps.Audit != nil {
		s.deps.Audit.LogEvent(ctx, session.SeminarID, caller.UserID, audit.ActionCodeIssued, audit.ResourceAttendance,
			map[string]string{"session_id": sessionID, "date": issued.Date})
	}
	return issued, nil
}

// AttendanceRate returns the percentage of sessionIDs in which userID has a present record.
// Duplicate and blank ids are ignored; an empty set yields 0.
func (s *CheckinService) AttendanceRate(ctx context.Context, userID string, sessionIDs []string) (float64, error) {
	ids := uniqueIDs(sessionIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	present, err := s.deps.Ledger.CountPresent(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return domain.Rate(present, len(ids)), nil
}

// MyAttendanceRate authenticates token and returns the caller's AttendanceRate.
func (s *CheckinService) MyAttendanceRate(ctx context.Context, token string, sessionIDs []string) (string, float64, error) {
	caller, err := s.authenticate(ctx, token)
	if err != nil {
		return "", 0, err
	}
	rate, err := s.AttendanceRate(ctx, caller.UserID, sessionIDs)
	return caller.UserID, rate, err
}

// SessionSummary counts approved participants, present and absent ones for sessionID.
// Only the seminar owner or an admin may view it.
func (s *CheckinService) SessionSummary(ctx context.Context, token, sessionID string) (*Summary, error) {
	_, session, err := s.authorizeSession(ctx, token, sessionID, engine.ActionViewSummary)
	if err != nil {
		return nil, err
	}
	participants, err := s.deps.Participants.ListBySeminar(ctx, session.SeminarID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	approved := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p.CanCheckIn() {
			approved[p.UserID] = true
		}
	}
	records, err := s.deps.Ledger.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	present := 0
	for _, r := range records {
		if r.Status == domain.StatusPresent && approved[r.UserID] {
			present++
		}
	}
	return &Summary{
		SessionID: sessionID,
		SeminarID: session.SeminarID,
		Approved:  len(approved),
		Present:   present,
		Absent:    len(approved) - present,
		Records:   records,
	}, nil
}

func (s *CheckinService) authenticate(ctx context.Context, token string) (*identitydomain.Identity, error) {
	if s.deps.Directory == nil {
		return nil, ErrUnauthenticated
	}
	caller, err := s.deps.Directory.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, ErrUnauthenticated
	}
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	return caller, nil
}

func (s *CheckinService) resetAttempts(ctx context.Context, userID, sessionID string) {
	if s.deps.Limiter == nil || userID == "" {
		return
	}
	if err := s.deps.Limiter.Reset(ctx, userID, sessionID); err != nil {
		log.Printf("attendance: reset attempt counter: %v", err)
	}
}

// authorizeSession authenticates token, loads the session and its seminar, and asks the policy engine.
func (s *CheckinService) authorizeSession(ctx context.Context, token, sessionID string, action engine.Action) (*identitydomain.Identity, *seminardomain.Session, error) {
	caller, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.deps.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	seminar, err := s.deps.Sessions.GetSeminar(ctx, session.SeminarID)
	if err != nil {
		return nil, nil, fmt.Errorf("get seminar: %w", err)
	}
	if seminar == nil {
		return nil, nil, ErrSessionNotFound
	}
	if s.deps.Policy == nil {
		return nil, nil, ErrForbidden
	}
	ok, err := s.deps.Policy.Allow(ctx, engine.Request{Action: action, Caller: caller, OwnerID: seminar.CreatedBy})
	if err != nil {
		return nil, nil, fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return nil, nil, ErrForbidden
	}
	return caller, session, nil
}

func (s *CheckinService) recordOutcome(ctx context.Context, span trace.Span, err error) {
	o := outcome(err)
	span.SetAttributes(attribute.String("attendance.outcome", o))
	if err != nil && !isRejection(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.checkins != nil {
		s.checkins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o)))
	}
}

// isRejection reports whether err is an expected, user-facing check-in outcome.
func isRejection(err error) bool {
	for _, target := range []error{ErrUnauthenticated, ErrInvalidCode, ErrSessionNotFound, ErrNotAParticipant, ErrAlreadyCheckedIn, ErrTooManyAttempts} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrNotAParticipant):
		return "not_a_participant"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "already_checked_in"
	default:
		return "error"
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
