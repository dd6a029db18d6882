package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	healthhandler "github.com/seungwongo/EduFlow/internal/health/handler"
	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	identityservice "github.com/seungwongo/EduFlow/internal/identity/service"
	participantdomain "github.com/seungwongo/EduFlow/internal/participant/domain"
	participanthandler "github.com/seungwongo/EduFlow/internal/participant/handler"
	participantservice "github.com/seungwongo/EduFlow/internal/participant/service"
	"github.com/seungwongo/EduFlow/internal/security"
	seminardomain "github.com/seungwongo/EduFlow/internal/seminar/domain"
	seminarhandler "github.com/seungwongo/EduFlow/internal/seminar/handler"
	seminarservice "github.com/seungwongo/EduFlow/internal/seminar/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// joinRecorder implements participanthandler.ParticipantAPI, remembering who joined.
type joinRecorder struct {
	mu     sync.Mutex
	joined []string
}

func (j *joinRecorder) Join(ctx context.Context, caller *identitydomain.Identity, seminarID string) (*participantdomain.Participant, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.joined = append(j.joined, caller.UserID)
	return &participantdomain.Participant{ID: "p1", SeminarID: seminarID, UserID: caller.UserID, Status: participantdomain.StatusApproved}, nil
}

func (j *joinRecorder) Leave(context.Context, *identitydomain.Identity, string) error { return nil }

func (j *joinRecorder) Roster(context.Context, *identitydomain.Identity, string) ([]*participantservice.RosterEntry, error) {
	return nil, nil
}

func (j *joinRecorder) UpdateStatus(context.Context, *identitydomain.Identity, string, string, string) (*participantdomain.Participant, error) {
	return nil, participantservice.ErrParticipantNotFound
}

func (j *joinRecorder) Remove(context.Context, *identitydomain.Identity, string, string) error {
	return nil
}

// catalogStub implements seminarhandler.SeminarAPI with a single seminar.
type catalogStub struct {
	createdBy string
}

var catalogSeminar = &seminardomain.Seminar{ID: "sem-1", Title: "Go", CreatedBy: "teach"}

func (c *catalogStub) Create(ctx context.Context, caller *identitydomain.Identity, in seminarservice.CreateInput) (*seminarservice.Detail, error) {
	c.createdBy = caller.UserID
	return &seminarservice.Detail{Seminar: catalogSeminar}, nil
}

func (c *catalogStub) List(context.Context, int32, int32) ([]*seminardomain.Seminar, error) {
	return []*seminardomain.Seminar{catalogSeminar}, nil
}

func (c *catalogStub) Get(context.Context, string) (*seminarservice.Detail, error) {
	return &seminarservice.Detail{Seminar: catalogSeminar}, nil
}

type downPinger struct{}

func (downPinger) PingContext(context.Context) error { return errors.New("refused") }

func TestNewRouter(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := tokens.IssueAccess("alice", "participant")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	api := &joinRecorder{}
	r := NewRouter(HTTPDeps{
		Directory:    identityservice.NewDirectory(tokens),
		Participants: participanthandler.NewHandler(api),
	})

	testCases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"join without token", http.MethodPost, "/api/seminars/sem-1/join", "", http.StatusUnauthorized},
		{"join with bad token", http.MethodPost, "/api/seminars/sem-1/join", "garbage", http.StatusUnauthorized},
		{"join", http.MethodPost, "/api/seminars/sem-1/join", token, http.StatusOK},
		{"attendance routes not mounted", http.MethodPost, "/api/attendance/check", token, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
	if len(api.joined) != 1 || api.joined[0] != "alice" {
		t.Errorf("joined = %v, want [alice]", api.joined)
	}
}

func TestNewRouter_HealthzUnavailable(t *testing.T) {
	r := NewRouter(HTTPDeps{Health: healthhandler.NewChecker(downPinger{}, nil)})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestNewRouter_SeminarRoutesBesideRosterRoutes(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, err := tokens.IssueAccess("teach", "instructor")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	catalog := &catalogStub{}
	r := NewRouter(HTTPDeps{
		Directory:    identityservice.NewDirectory(tokens),
		Seminars:     seminarhandler.NewHandler(catalog),
		Participants: participanthandler.NewHandler(&joinRecorder{}),
	})

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"list is public", http.MethodGet, "/api/seminars", "", "", http.StatusOK},
		{"detail is public", http.MethodGet, "/api/seminars/sem-1", "", "", http.StatusOK},
		{"create without token", http.MethodPost, "/api/seminars", `{"title":"Go"}`, "", http.StatusUnauthorized},
		{"create", http.MethodPost, "/api/seminars", `{"title":"Go"}`, token, http.StatusCreated},
		{"join still routed", http.MethodPost, "/api/seminars/sem-1/join", "", token, http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
	if catalog.createdBy != "teach" {
		t.Errorf("created by %q, want teach", catalog.createdBy)
	}
}
