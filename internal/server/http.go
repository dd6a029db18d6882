// Package server builds the public HTTP router and the ops gRPC server.
package server

import (
	"github.com/gin-gonic/gin"

	attendancehandler "github.com/seungwongo/EduFlow/internal/attendance/handler"
	audithandler "github.com/seungwongo/EduFlow/internal/audit/handler"
	healthhandler "github.com/seungwongo/EduFlow/internal/health/handler"
	participanthandler "github.com/seungwongo/EduFlow/internal/participant/handler"
	seminarhandler "github.com/seungwongo/EduFlow/internal/seminar/handler"
	"github.com/seungwongo/EduFlow/internal/server/middleware"
	"github.com/seungwongo/EduFlow/internal/telemetry"
)

const healthzPath = "/healthz"

// HTTPDeps holds the HTTP handlers and cross-cutting dependencies. Nil handlers are not mounted.
type HTTPDeps struct {
	// Directory resolves access tokens for the participant and audit routes.
	Directory middleware.Authenticator
	// Attendance serves check-in and code routes; it authenticates the raw token itself.
	Attendance *attendancehandler.Handler
	// Seminars serves the public catalog; creation checks the identity itself.
	Seminars     *seminarhandler.Handler
	Participants *participanthandler.Handler
	Audit        *audithandler.Handler
	// Health backs GET /healthz. If nil, /healthz always reports ok.
	Health *healthhandler.Checker
	// Events receives one http_request event per request. May be nil.
	Events telemetry.EventEmitter
}

// NewRouter returns the gin engine serving /healthz and the /api routes.
func NewRouter(deps HTTPDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Logger(),
		gin.Recovery(),
		middleware.ClientIPs(),
		middleware.Authenticate(deps.Directory),
		middleware.RequestTelemetry(deps.Events, map[string]bool{healthzPath: true}),
	)

	checker := deps.Health
	if checker == nil {
		checker = healthhandler.NewChecker(nil, nil)
	}
	r.GET(healthzPath, healthhandler.Healthz(checker))

	api := r.Group("/api")
	if deps.Attendance != nil {
		deps.Attendance.Register(api)
	}
	if deps.Seminars != nil {
		deps.Seminars.Register(api)
	}
	authed := api.Group("", middleware.RequireIdentity())
	if deps.Participants != nil {
		deps.Participants.Register(authed)
	}
	if deps.Audit != nil {
		deps.Audit.Register(authed)
	}
	return r
}
