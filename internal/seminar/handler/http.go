// Package handler exposes the seminar catalog and seminar creation over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	"github.com/seungwongo/EduFlow/internal/platform/httpx"
	"github.com/seungwongo/EduFlow/internal/seminar/domain"
	"github.com/seungwongo/EduFlow/internal/seminar/service"
	"github.com/seungwongo/EduFlow/internal/server/middleware"
)

const (
	component       = "seminar handler"
	defaultPageSize = 50
	maxPageSize     = 200
)

// SeminarAPI is the subset of service.SeminarService served over HTTP.
type SeminarAPI interface {
	Create(ctx context.Context, caller *identitydomain.Identity, in service.CreateInput) (*service.Detail, error)
	List(ctx context.Context, limit, offset int32) ([]*domain.Seminar, error)
	Get(ctx context.Context, id string) (*service.Detail, error)
}

// Handler serves the seminar routes. Listing and detail are public; creation needs an identity.
type Handler struct {
	svc SeminarAPI
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc SeminarAPI) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the seminar routes on r (the /api group, after middleware.Authenticate).
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/seminars", h.create)
	r.GET("/seminars", h.list)
	r.GET("/seminars/:id", h.get)
}

type sessionRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
}

type createRequest struct {
	Title           string           `json:"title" binding:"required,max=200"`
	Description     string           `json:"description"`
	MaxParticipants int              `json:"maxParticipants" binding:"gte=0"`
	Sessions        []sessionRequest `json:"sessions" binding:"max=100,dive"`
}

type seminarResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CreatedBy       string    `json:"createdBy"`
	MaxParticipants int       `json:"maxParticipants"`
	CreatedAt       time.Time `json:"createdAt"`
}

type sessionResponse struct {
	ID            string `json:"id"`
	SessionNumber int    `json:"sessionNumber"`
	Title         string `json:"title"`
	Description   string `json:"description"`
}

type detailResponse struct {
	seminarResponse
	Sessions         []sessionResponse `json:"sessions"`
	ParticipantCount int               `json:"participantCount"`
	Full             bool              `json:"full"`
}

type listResponse struct {
	Seminars []seminarResponse `json:"seminars"`
	Limit    int32             `json:"limit"`
	Offset   int32             `json:"offset"`
}

func toSeminar(s *domain.Seminar) seminarResponse {
	return seminarResponse{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		CreatedBy:       s.CreatedBy,
		MaxParticipants: s.MaxParticipants,
		CreatedAt:       s.CreatedAt,
	}
}

func toDetail(d *service.Detail) detailResponse {
	sessions := make([]sessionResponse, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		sessions = append(sessions, sessionResponse{ID: s.ID, SessionNumber: s.SessionNumber, Title: s.Title, Description: s.Description})
	}
	return detailResponse{seminarResponse: toSeminar(d.Seminar), Sessions: sessions, ParticipantCount: d.ParticipantCount, Full: d.Full}
}

func (h *Handler) create(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c.Request.Context())
	if caller == nil {
		httpx.Error(c, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "title is required; maxParticipants must be >= 0; every session needs a title")
		return
	}
	in := service.CreateInput{Title: req.Title, Description: req.Description, MaxParticipants: req.MaxParticipants}
	for _, s := range req.Sessions {
		in.Sessions = append(in.Sessions, service.SessionInput{Title: s.Title, Description: s.Description})
	}
	d, err := h.svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusCreated, toDetail(d))
}

func (h *Handler) list(c *gin.Context) {
	limit, offset, ok := httpx.Page(c, defaultPageSize, maxPageSize)
	if !ok {
		httpx.Error(c, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}
	list, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]seminarResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSeminar(s))
	}
	httpx.Data(c, http.StatusOK, listResponse{Seminars: out, Limit: limit, Offset: offset})
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusOK, toDetail(d))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidSeminar):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		httpx.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSeminarNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	default:
		httpx.Internal(c, component, err)
	}
}
