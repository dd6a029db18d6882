package domain

import (
	"encoding/json"
	"time"
)

// Event types emitted by the attendance, participant and seminar services.
const (
	EventCheckedIn       = "attendance_checked_in"
	EventCheckinRejected = "attendance_checkin_rejected"
	EventCodeIssued      = "attendance_code_issued"
	EventParticipantJoin = "participant_joined"
	EventSeminarCreated  = "seminar_created"
	EventHTTPRequest     = "http_request"
)

// Event is a best-effort telemetry event. SeminarID, SessionID and UserID are optional.
// The JSON shape is what the Kafka producer writes and the Loki worker reads.
type Event struct {
	SeminarID string          `json:"seminarId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent returns an event stamped with the current UTC time. metadata is marshalled as JSON when non-nil.
func NewEvent(eventType, source string, metadata any) *Event {
	e := &Event{EventType: eventType, Source: source, CreatedAt: time.Now().UTC()}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			e.Metadata = b
		}
	}
	return e
}
