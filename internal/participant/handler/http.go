// Package handler exposes seminar participation and roster management over HTTP.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	"github.com/seungwongo/EduFlow/internal/participant/domain"
	"github.com/seungwongo/EduFlow/internal/participant/service"
	"github.com/seungwongo/EduFlow/internal/platform/httpx"
	"github.com/seungwongo/EduFlow/internal/server/middleware"
)

const component = "participant handler"

// ParticipantAPI is the subset of service.ParticipantService served over HTTP.
type ParticipantAPI interface {
	Join(ctx context.Context, caller *identitydomain.Identity, seminarID string) (*domain.Participant, error)
	Leave(ctx context.Context, caller *identitydomain.Identity, seminarID string) error
	Roster(ctx context.Context, caller *identitydomain.Identity, seminarID string) ([]*service.RosterEntry, error)
	UpdateStatus(ctx context.Context, caller *identitydomain.Identity, seminarID, participantID, status string) (*domain.Participant, error)
	Remove(ctx context.Context, caller *identitydomain.Identity, seminarID, participantID string) error
}

var registerOnce sync.Once

// RegisterValidators adds the participant_status binding tag to gin's validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := v.RegisterValidation("participant_status", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseStatus(fl.Field().String())
			return err == nil
		}); err != nil {
			log.Printf("participant handler: register validator: %v", err)
		}
	})
}

// Handler serves the participant routes. Every route expects middleware.RequireIdentity upstream.
type Handler struct {
	svc ParticipantAPI
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc ParticipantAPI) *Handler {
	RegisterValidators()
	return &Handler{svc: svc}
}

// Register mounts the participant routes on r (expected to be the authenticated /api group).
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/seminars/:id/join", h.join)
	r.DELETE("/seminars/:id/join", h.leave)
	r.GET("/seminars/:id/participants", h.roster)
	r.PUT("/seminars/:id/participants/:participantId", h.updateStatus)
	r.DELETE("/seminars/:id/participants/:participantId", h.remove)
}

type participantResponse struct {
	ID        string    `json:"id"`
	SeminarID string    `json:"seminarId"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type rosterEntryResponse struct {
	participantResponse
	Present        int `json:"present"`
	AttendanceRate int `json:"attendanceRate"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,participant_status"`
}

func toResponse(p *domain.Participant) participantResponse {
	return participantResponse{ID: p.ID, SeminarID: p.SeminarID, UserID: p.UserID, Status: string(p.Status), JoinedAt: p.JoinedAt}
}

func caller(c *gin.Context) *identitydomain.Identity {
	id, _ := middleware.GetIdentity(c.Request.Context())
	return id
}

func (h *Handler) join(c *gin.Context) {
	p, err := h.svc.Join(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusOK, toResponse(p))
}

func (h *Handler) leave(c *gin.Context) {
	if err := h.svc.Leave(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusOK, gin.H{"seminarId": c.Param("id"), "left": true})
}

func (h *Handler) roster(c *gin.Context) {
	entries, err := h.svc.Roster(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]rosterEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, rosterEntryResponse{participantResponse: toResponse(e.Participant), Present: e.Present, AttendanceRate: e.AttendanceRate})
	}
	httpx.Data(c, http.StatusOK, out)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "status must be one of pending, approved, rejected")
		return
	}
	p, err := h.svc.UpdateStatus(c.Request.Context(), caller(c), c.Param("id"), c.Param("participantId"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusOK, toResponse(p))
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), caller(c), c.Param("id"), c.Param("participantId")); err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusOK, gin.H{"id": c.Param("participantId"), "removed": true})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		httpx.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSeminarNotFound), errors.Is(err, service.ErrParticipantNotFound), errors.Is(err, service.ErrNotJoined):
		httpx.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyJoined), errors.Is(err, service.ErrSeminarFull):
		httpx.Error(c, http.StatusConflict, err.Error())
	default:
		httpx.Internal(c, component, err)
	}
}
