package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

// mockPolicyChecker implements PolicyChecker for tests.
type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func TestChecker_Check(t *testing.T) {
	testCases := []struct {
		name    string
		pinger  Pinger
		policy  PolicyChecker
		wantErr string
	}{
		{"no dependencies", nil, nil, ""},
		{"all healthy", &mockPinger{}, &mockPolicyChecker{}, ""},
		{"db down", &mockPinger{pingErr: errors.New("refused")}, &mockPolicyChecker{}, "database: refused"},
		{"policy down", &mockPinger{}, &mockPolicyChecker{healthErr: errors.New("no result")}, "policy: no result"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewChecker(tc.pinger, tc.policy).Check(context.Background())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Check: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Check = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestChecker_BothFailuresReported(t *testing.T) {
	dbErr := errors.New("refused")
	err := NewChecker(&mockPinger{pingErr: dbErr}, &mockPolicyChecker{healthErr: errors.New("broken")}).Check(context.Background())
	if !errors.Is(err, dbErr) || !strings.Contains(err.Error(), "policy: broken") {
		t.Errorf("Check = %v", err)
	}
}

func grpcStatus(t *testing.T, hs *health.Server) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health Check: %v", err)
	}
	return resp.GetStatus()
}

func TestPoller_Refresh(t *testing.T) {
	pinger := &mockPinger{}
	hs := health.NewServer()
	p := NewPoller(NewChecker(pinger, nil), hs)

	if got := p.Refresh(context.Background()); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Refresh = %v, want SERVING", got)
	}
	if got := grpcStatus(t, hs); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("health status = %v, want SERVING", got)
	}

	pinger.pingErr = errors.New("down")
	p.Refresh(context.Background())
	if got := grpcStatus(t, hs); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("health status = %v, want NOT_SERVING", got)
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	hs := health.NewServer()
	p := NewPoller(NewChecker(&mockPinger{pingErr: errors.New("down")}, nil), hs)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := grpcStatus(t, hs); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("health status = %v, want NOT_SERVING", got)
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"healthy", nil, http.StatusOK},
		{"unhealthy", errors.New("refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/healthz", Healthz(NewChecker(&mockPinger{pingErr: tc.err}, nil)))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
