package domain

import "time"

// Status is the recorded attendance state. Only present is ever written; absences are implied.
type Status string

const StatusPresent Status = "present"

// Record is one attendance entry. At most one exists per (SessionID, UserID).
type Record struct {
	ID        string
	SessionID string
	UserID    string
	Status    Status
	CheckedAt time.Time
}

// Rate returns present/total as a percentage. A zero total yields 0.
func Rate(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	if present > total {
		present = total
	}
	return float64(present) / float64(total) * 100
}
