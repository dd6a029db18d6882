package engine

import (
	"context"

	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
)

// Action names an authorized operation on a seminar.
type Action string

const (
	ActionIssueCode    Action = "issue_code"
	ActionViewSummary  Action = "view_summary"
	ActionManageRoster Action = "manage_roster"
	ActionViewAudit    Action = "view_audit"

	// ActionCreateSeminar is not owner-gated; the caller becomes the owner.
	ActionCreateSeminar Action = "create_seminar"
)

// Request is the input to an authorization decision.
type Request struct {
	Action  Action
	Caller  *identitydomain.Identity
	OwnerID string // created_by of the seminar the action targets
}

// Evaluator decides whether a caller may perform an action on a seminar.
type Evaluator interface {
	// Allow returns false with a nil error for a plain denial.
	Allow(ctx context.Context, req Request) (bool, error)
}
