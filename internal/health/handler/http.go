package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz serves GET /healthz: 200 when Check passes, 503 with the failure otherwise.
func Healthz(checker *Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checker.Check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
