package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seungwongo/EduFlow/internal/telemetry"
	telemetrydomain "github.com/seungwongo/EduFlow/internal/telemetry/domain"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// RequestTelemetry emits an http_request event after each request. Best-effort: emit failures are
// logged by EmitAsync and never affect the response. A nil emitter makes it a no-op.
// skipPaths holds route patterns that are not emitted (e.g. /healthz).
func RequestTelemetry(emitter telemetry.EventEmitter, skipPaths map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if emitter == nil || skipPaths[route] {
			return
		}
		if route == "" {
			route = "unmatched"
		}
		ctx := c.Request.Context()
		ev := telemetrydomain.NewEvent(telemetrydomain.EventHTTPRequest, "http_middleware", httpRequestMetadata{
			Method:     c.Request.Method,
			Route:      route,
			StatusCode: c.Writer.Status(),
			DurationMs: time.Since(start).Milliseconds(),
			ClientIP:   ClientIP(ctx),
		})
		if id, ok := GetIdentity(ctx); ok {
			ev.UserID = id.UserID
		}
		ev.SessionID = c.Param("sessionId")
		ev.SeminarID = c.Param("id")
		telemetry.EmitAsync(emitter, ctx, ev)
	}
}
