package domain

import "time"

// AuditLog is one recorded action on a seminar's attendance or roster.
type AuditLog struct {
	ID        string
	SeminarID string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
