package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestSeminar_HasCapacity(t *testing.T) {
	testCases := []struct {
		name     string
		seminar  *Seminar
		approved int
		want     bool
	}{
		{"nil seminar", nil, 100, true},
		{"unlimited", &Seminar{MaxParticipants: 0}, 1000, true},
		{"room left", &Seminar{MaxParticipants: 3}, 2, true},
		{"full", &Seminar{MaxParticipants: 3}, 3, false},
		{"over", &Seminar{MaxParticipants: 3}, 5, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.seminar.HasCapacity(tc.approved); got != tc.want {
				t.Errorf("HasCapacity(%d) = %v, want %v", tc.approved, got, tc.want)
			}
		})
	}
}

func TestSeminar_OwnedBy(t *testing.T) {
	s := &Seminar{CreatedBy: "owner"}
	if !s.OwnedBy("owner") {
		t.Error("owner should own seminar")
	}
	if s.OwnedBy("other") || s.OwnedBy("") {
		t.Error("only the creator owns the seminar")
	}
	var nilSeminar *Seminar
	if nilSeminar.OwnedBy("owner") {
		t.Error("nil seminar has no owner")
	}
}

func TestSeminar_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		seminar Seminar
		wantErr bool
	}{
		{"valid", Seminar{ID: "s", CreatedBy: "u", Title: "Go"}, false},
		{"missing id", Seminar{CreatedBy: "u", Title: "Go"}, true},
		{"missing owner", Seminar{ID: "s", Title: "Go"}, true},
		{"blank title", Seminar{ID: "s", CreatedBy: "u", Title: "   "}, true},
		{"long title", Seminar{ID: "s", CreatedBy: "u", Title: strings.Repeat("가", MaxTitleLength+1)}, true},
		{"title at limit", Seminar{ID: "s", CreatedBy: "u", Title: strings.Repeat("가", MaxTitleLength)}, false},
		{"negative capacity", Seminar{ID: "s", CreatedBy: "u", Title: "Go", MaxParticipants: -1}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.seminar.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSeminar) {
				t.Errorf("err = %v, want ErrInvalidSeminar", err)
			}
		})
	}
}

func TestValidateSessions(t *testing.T) {
	ok := []*Session{
		{ID: "a", SeminarID: "sem", SessionNumber: 1, Title: "Intro"},
		{ID: "b", SeminarID: "sem", SessionNumber: 2, Title: "Deep dive"},
	}
	if err := ValidateSessions("sem", ok); err != nil {
		t.Fatalf("ValidateSessions: %v", err)
	}
	if err := ValidateSessions("sem", nil); err != nil {
		t.Fatalf("no sessions: %v", err)
	}
	testCases := []struct {
		name     string
		sessions []*Session
	}{
		{"gap in numbering", []*Session{{ID: "a", SeminarID: "sem", SessionNumber: 2, Title: "x"}}},
		{"other seminar", []*Session{{ID: "a", SeminarID: "other", SessionNumber: 1, Title: "x"}}},
		{"untitled", []*Session{{ID: "a", SeminarID: "sem", SessionNumber: 1}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateSessions("sem", tc.sessions); !errors.Is(err, ErrInvalidSeminar) {
				t.Errorf("err = %v, want ErrInvalidSeminar", err)
			}
		})
	}
	many := make([]*Session, MaxSessions+1)
	for i := range many {
		many[i] = &Session{ID: "s", SeminarID: "sem", SessionNumber: i + 1, Title: "x"}
	}
	if err := ValidateSessions("sem", many); !errors.Is(err, ErrInvalidSeminar) {
		t.Errorf("too many sessions: %v", err)
	}
}
