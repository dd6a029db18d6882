package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seungwongo/EduFlow/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests. done, when set, receives once per Emit.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	ctxErrs []error
	emitErr error
	done    chan struct{}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Event(nil), m.events...)
}

func waitN(t *testing.T, done <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	EmitAsync(nil, context.Background(), domain.NewEvent("test", "test", nil))
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if events := emitter.getEvents(); len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	event := &domain.Event{SessionID: "s1", UserID: "user-1", EventType: domain.EventCheckedIn, Source: "test"}

	EmitAsync(emitter, context.Background(), event)
	waitN(t, emitter.done, 1)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0] != event {
		t.Errorf("emitted %+v, want %+v", events[0], event)
	}
}

func TestEmitAsync_DetachesFromCanceledContext(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, domain.NewEvent("test", "test", nil))
	waitN(t, emitter.done, 1)

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	if emitter.ctxErrs[0] != nil {
		t.Errorf("emit context err = %v, want nil", emitter.ctxErrs[0])
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: context.DeadlineExceeded, done: make(chan struct{}, 1)}
	EmitAsync(emitter, context.Background(), domain.NewEvent("test", "test", nil))
	waitN(t, emitter.done, 1)
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 10)}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), domain.NewEvent("test", "test", nil))
		}()
	}
	wg.Wait()
	waitN(t, emitter.done, 10)
	if events := emitter.getEvents(); len(events) != 10 {
		t.Errorf("expected 10 events, got %d", len(events))
	}
}

func TestFanout_EmitsToAllAndJoinsErrors(t *testing.T) {
	a := &mockEventEmitter{}
	b := &mockEventEmitter{emitErr: errors.New("kafka down")}
	f := Fanout{a, nil, b}
	err := f.Emit(context.Background(), domain.NewEvent("test", "test", nil))
	if err == nil || err.Error() != "kafka down" {
		t.Errorf("Fanout err = %v, want kafka down", err)
	}
	if len(a.getEvents()) != 1 || len(b.getEvents()) != 1 {
		t.Errorf("events a=%d b=%d, want 1 each", len(a.getEvents()), len(b.getEvents()))
	}
	if err := (Fanout{}).Emit(context.Background(), nil); err != nil {
		t.Errorf("empty Fanout err = %v", err)
	}
}

func TestNewEvent_Metadata(t *testing.T) {
	e := domain.NewEvent(domain.EventCodeIssued, "attendance", map[string]string{"date": "2024-03-01"})
	if string(e.Metadata) != `{"date":"2024-03-01"}` {
		t.Errorf("metadata = %s", e.Metadata)
	}
	if e.CreatedAt.IsZero() || e.CreatedAt.Location() != time.UTC {
		t.Errorf("created_at = %v", e.CreatedAt)
	}
	if e := domain.NewEvent("x", "y", nil); e.Metadata != nil {
		t.Errorf("nil metadata marshalled to %s", e.Metadata)
	}
}
