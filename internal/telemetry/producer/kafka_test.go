package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/seungwongo/EduFlow/internal/telemetry/domain"
)

type fakeWriter struct {
	msgs     []kafka.Message
	writeErr error
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("write without deadline")
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ Producer = (*KafkaProducer)(nil)

func TestNewKafkaProducer_Disabled(t *testing.T) {
	for _, tc := range []struct {
		brokers []string
		topic   string
	}{
		{nil, "topic"},
		{[]string{"localhost:9092"}, ""},
	} {
		p, err := NewKafkaProducer(tc.brokers, tc.topic)
		if err != nil || p != nil {
			t.Errorf("NewKafkaProducer(%v, %q) = %v, %v; want nil, nil", tc.brokers, tc.topic, p, err)
		}
	}
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &domain.Event{}); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestNewKafkaProducer_Configured(t *testing.T) {
	p, err := NewKafkaProducer([]string{"localhost:9092"}, "eduflow-attendance")
	if err != nil || p == nil {
		t.Fatalf("NewKafkaProducer = %v, %v", p, err)
	}
	if p.topic != "eduflow-attendance" {
		t.Errorf("topic = %q", p.topic)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestKafkaProducer_Emit(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "t"}
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	event := &domain.Event{SessionID: "s1", UserID: "u1", EventType: domain.EventCheckedIn, Source: "attendance", CreatedAt: created}

	if err := p.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "s1" {
		t.Errorf("key = %q, want s1", msg.Key)
	}
	var got domain.Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.EventType != domain.EventCheckedIn || got.UserID != "u1" || !got.CreatedAt.Equal(created) {
		t.Errorf("payload = %+v", got)
	}
	if err := p.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
	if len(w.msgs) != 1 {
		t.Error("nil event was written")
	}
}

func TestKafkaProducer_EmitError(t *testing.T) {
	w := &fakeWriter{writeErr: errors.New("broker unavailable")}
	p := &KafkaProducer{writer: w, topic: "t"}
	if err := p.Emit(context.Background(), &domain.Event{EventType: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close = %v, closed = %v", err, w.closed)
	}
}
