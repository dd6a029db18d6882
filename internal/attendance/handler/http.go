// Package handler exposes attendance check-in, code issuance and reporting over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seungwongo/EduFlow/internal/attendance/code"
	"github.com/seungwongo/EduFlow/internal/attendance/service"
	"github.com/seungwongo/EduFlow/internal/platform/httpx"
	"github.com/seungwongo/EduFlow/internal/server/middleware"
)

const component = "attendance handler"

// CheckinAPI is the subset of service.CheckinService served over HTTP.
type CheckinAPI interface {
	SubmitCheckin(ctx context.Context, token, sessionID, submitted string) (*service.CheckinResult, error)
	GenerateCode(ctx context.Context, token, sessionID, origin string) (*code.Issued, error)
	MyAttendanceRate(ctx context.Context, token string, sessionIDs []string) (string, float64, error)
	SessionSummary(ctx context.Context, token, sessionID string) (*service.Summary, error)
}

// Handler serves the attendance routes.
type Handler struct {
	svc CheckinAPI
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc CheckinAPI) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the attendance routes on r (expected to be the /api group).
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/sessions/:sessionId/attendance-code", h.getCode)
	r.GET("/sessions/:sessionId/attendance-code/qr.png", h.getQR)
	r.GET("/sessions/:sessionId/attendance-summary", h.getSummary)
	r.POST("/attendance/check", h.check)
	r.GET("/users/me/attendance-rate", h.getRate)
}

type checkRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

type checkResponse struct {
	SessionID        string     `json:"sessionId"`
	UserID           string     `json:"userId,omitempty"`
	CheckedAt        *time.Time `json:"checkedAt,omitempty"`
	AlreadyCheckedIn bool       `json:"alreadyCheckedIn"`
}

type codeResponse struct {
	SessionID  string `json:"sessionId"`
	Code       string `json:"code"`
	CheckinURL string `json:"checkinUrl"`
	Date       string `json:"date"`
}

type recordResponse struct {
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	CheckedAt time.Time `json:"checkedAt"`
}

type summaryResponse struct {
	SessionID string           `json:"sessionId"`
	SeminarID string           `json:"seminarId"`
	Approved  int              `json:"approved"`
	Present   int              `json:"present"`
	Absent    int              `json:"absent"`
	Records   []recordResponse `json:"records"`
}

type rateResponse struct {
	UserID string  `json:"userId"`
	Rate   float64 `json:"rate"`
}

func (h *Handler) check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "sessionId and code are required")
		return
	}
	res, err := h.svc.SubmitCheckin(c.Request.Context(), middleware.ExtractToken(c.Request), req.SessionID, req.Code)
	if errors.Is(err, service.ErrAlreadyCheckedIn) {
		httpx.Data(c, http.StatusOK, checkResponse{SessionID: req.SessionID, AlreadyCheckedIn: true})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusOK, checkResponse{SessionID: res.SessionID, UserID: res.UserID, CheckedAt: &res.CheckedAt})
}

// issue generates today's code. ?origin= overrides the configured public origin in the check-in URL.
func (h *Handler) issue(c *gin.Context) (*code.Issued, bool) {
	issued, err := h.svc.GenerateCode(c.Request.Context(), middleware.ExtractToken(c.Request), c.Param("sessionId"), c.Query("origin"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return issued, true
}

func (h *Handler) getCode(c *gin.Context) {
	issued, ok := h.issue(c)
	if !ok {
		return
	}
	httpx.Data(c, http.StatusOK, codeResponse{
		SessionID:  issued.SessionID,
		Code:       issued.Code,
		CheckinURL: issued.CheckinURL,
		Date:       issued.Date,
	})
}

// getQR renders the check-in URL as a PNG. ?size= sets the edge length in pixels.
func (h *Handler) getQR(c *gin.Context) {
	requested := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Error(c, http.StatusBadRequest, "size must be an integer")
			return
		}
		requested = n
	}
	size, err := code.QRSize(requested)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	issued, ok := h.issue(c)
	if !ok {
		return
	}
	png, err := code.QRPNG(issued.CheckinURL, size)
	if err != nil {
		httpx.Internal(c, component, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) getSummary(c *gin.Context) {
	sum, err := h.svc.SessionSummary(c.Request.Context(), middleware.ExtractToken(c.Request), c.Param("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	records := make([]recordResponse, 0, len(sum.Records))
	for _, r := range sum.Records {
		records = append(records, recordResponse{UserID: r.UserID, Status: string(r.Status), CheckedAt: r.CheckedAt})
	}
	httpx.Data(c, http.StatusOK, summaryResponse{
		SessionID: sum.SessionID,
		SeminarID: sum.SeminarID,
		Approved:  sum.Approved,
		Present:   sum.Present,
		Absent:    sum.Absent,
		Records:   records,
	})
}

// getRate reads session ids from repeated ?sessionId= parameters.
func (h *Handler) getRate(c *gin.Context) {
	userID, rate, err := h.svc.MyAttendanceRate(c.Request.Context(), middleware.ExtractToken(c.Request), c.QueryArray("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	httpx.Data(c, http.StatusOK, rateResponse{UserID: userID, Rate: rate})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidCode), errors.Is(err, code.ErrInvalidOrigin):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAParticipant), errors.Is(err, service.ErrForbidden):
		httpx.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		httpx.Error(c, http.StatusTooManyRequests, err.Error())
	default:
		httpx.Internal(c, component, err)
	}
}
