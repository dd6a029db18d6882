package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const defaultPolicyQuery = "data.eduflow.attendance.allow"

// Default Rego policy: admins may do anything. Instructors may create seminars and act only on
// seminars they created.
const defaultRegoPolicy = `package eduflow.attendance

default allow := false

owner_actions := {"issue_code", "view_summary", "manage_roster", "view_audit"}

allow if {
	input.user.role == "admin"
}

allow if {
	input.user.role == "instructor"
	owner_actions[input.action]
	input.user.id != ""
	input.seminar.created_by == input.user.id
}

allow if {
	input.user.role == "instructor"
	input.action == "create_seminar"
	input.user.id != ""
}
`

// OPAEvaluator evaluates seminar authorization with an in-process OPA Rego policy.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (the built-in policy when empty) and prepares the allow query.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = defaultRegoPolicy
	}
	q, err := rego.New(
		rego.Query(defaultPolicyQuery),
		rego.Module("attendance.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// Allow evaluates the policy for req. A nil caller is always denied.
func (e *OPAEvaluator) Allow(ctx context.Context, req Request) (bool, error) {
	if req.Caller == nil {
		return false, nil
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(req)))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	return rs.Allowed(), nil
}

// HealthCheck verifies that the prepared policy still evaluates to a decision.
// Does not touch the database. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(Request{Action: ActionIssueCode})))
	if err != nil {
		return fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return errors.New("policy query returned no result")
	}
	return nil
}

func buildInput(req Request) map[string]interface{} {
	user := map[string]interface{}{"id": "", "role": ""}
	if req.Caller != nil {
		user["id"] = req.Caller.UserID
		user["role"] = string(req.Caller.Role)
	}
	return map[string]interface{}{
		"action": string(req.Action),
		"user":   user,
		"seminar": map[string]interface{}{
			"created_by": req.OwnerID,
		},
	}
}
