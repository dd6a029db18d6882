// Package handler serves a seminar's audit trail over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditrepo "github.com/seungwongo/EduFlow/internal/audit/repository"
	"github.com/seungwongo/EduFlow/internal/platform/httpx"
	"github.com/seungwongo/EduFlow/internal/policy/engine"
	seminardomain "github.com/seungwongo/EduFlow/internal/seminar/domain"
	"github.com/seungwongo/EduFlow/internal/server/middleware"
)

const (
	component       = "audit handler"
	defaultPageSize = 50
	maxPageSize     = 200
)

// SeminarGetter loads the seminar whose owner gates access to its audit trail.
type SeminarGetter interface {
	GetSeminar(ctx context.Context, id string) (*seminardomain.Seminar, error)
}

// Handler lists audit logs for seminar owners and admins.
type Handler struct {
	repo     auditrepo.Repository
	seminars SeminarGetter
	policy   engine.Evaluator
}

// NewHandler returns an audit Handler.
func NewHandler(repo auditrepo.Repository, seminars SeminarGetter, policy engine.Evaluator) *Handler {
	return &Handler{repo: repo, seminars: seminars, policy: policy}
}

// Register mounts GET /seminars/:id/audit-logs on the authenticated /api group.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/seminars/:id/audit-logs", h.list)
}

type auditLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Logs   []auditLogResponse `json:"logs"`
	Limit  int32              `json:"limit"`
	Offset int32              `json:"offset"`
}

func (h *Handler) list(c *gin.Context) {
	limit, offset, ok := httpx.Page(c, defaultPageSize, maxPageSize)
	if !ok {
		httpx.Error(c, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}
	caller, _ := middleware.GetIdentity(c.Request.Context())
	if caller == nil {
		httpx.Error(c, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	seminarID := c.Param("id")
	seminar, err := h.seminars.GetSeminar(c.Request.Context(), seminarID)
	if err != nil {
		httpx.Internal(c, component, err)
		return
	}
	if seminar == nil {
		httpx.Error(c, http.StatusNotFound, "seminar not found")
		return
	}
	allowed, err := h.policy.Allow(c.Request.Context(), engine.Request{Action: engine.ActionViewAudit, Caller: caller, OwnerID: seminar.CreatedBy})
	if err != nil {
		httpx.Internal(c, component, err)
		return
	}
	if !allowed {
		httpx.Error(c, http.StatusForbidden, "not allowed to view this seminar's audit log")
		return
	}
	logs, err := h.repo.ListBySeminar(c.Request.Context(), seminarID, limit, offset)
	if err != nil {
		httpx.Internal(c, component, err)
		return
	}
	out := make([]auditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, auditLogResponse{
			ID:        l.ID,
			UserID:    l.UserID,
			Action:    l.Action,
			Resource:  l.Resource,
			IP:        l.IP,
			Metadata:  l.Metadata,
			CreatedAt: l.CreatedAt,
		})
	}
	httpx.Data(c, http.StatusOK, listResponse{Logs: out, Limit: limit, Offset: offset})
}
