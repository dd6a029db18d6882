package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seungwongo/EduFlow/internal/audit/domain"
)

// mockAuditRepo implements the audit repository interface for tests.
type mockAuditRepo struct {
	mu        sync.Mutex
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListBySeminar(ctx context.Context, seminarID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(ctx context.Context) string { return "192.168.1.1" })
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	logger.nowF = func() time.Time { return fixed }

	logger.LogEvent(context.Background(), "sem-1", "user-1", ActionCheckIn, ResourceAttendance, map[string]string{"session_id": "s1"})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.SeminarID != "sem-1" {
		t.Errorf("seminar_id = %q, want %q", entry.SeminarID, "sem-1")
	}
	if entry.UserID != "user-1" {
		t.Errorf("user_id = %q, want %q", entry.UserID, "user-1")
	}
	if entry.Action != ActionCheckIn || entry.Resource != ResourceAttendance {
		t.Errorf("action/resource = %q/%q", entry.Action, entry.Resource)
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.Metadata != `{"session_id":"s1"}` {
		t.Errorf("metadata = %q", entry.Metadata)
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
	if !entry.CreatedAt.Equal(fixed) {
		t.Errorf("created_at = %v, want %v", entry.CreatedAt, fixed)
	}
}

func TestLogger_LogEvent_NilIPExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).LogEvent(context.Background(), "sem-1", "user-1", "action", "resource", nil)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
	if repo.entries[0].Metadata != "" {
		t.Errorf("metadata = %q, want empty", repo.entries[0].Metadata)
	}
}

func TestLogger_LogEvent_EmptyExtractedIP(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, func(context.Context) string { return "" }).LogEvent(context.Background(), "sem-1", "u", "a", "r", nil)
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
}

func TestLogger_LogEvent_SentinelSeminarID(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).LogEvent(context.Background(), "", "user-1", "action", "resource", nil)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].SeminarID != SentinelSeminarID {
		t.Errorf("seminar_id = %q, want %q", repo.entries[0].SeminarID, SentinelSeminarID)
	}
}

func TestLogger_LogEvent_CanceledContextStillWrites(t *testing.T) {
	repo := &mockAuditRepo{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewLogger(repo, nil).LogEvent(ctx, "sem-1", "user-1", "action", "resource", nil)
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
}

func TestLogger_LogEvent_RepositoryError(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("database error")}
	// Best-effort: must not panic or surface the error.
	NewLogger(repo, nil).LogEvent(context.Background(), "sem-1", "user-1", "action", "resource", nil)
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	NewLogger(nil, nil).LogEvent(context.Background(), "sem-1", "user-1", "action", "resource", nil)
	var l *Logger
	l.LogEvent(context.Background(), "sem-1", "user-1", "action", "resource", nil)
}
