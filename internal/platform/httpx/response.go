// Package httpx holds the JSON envelope shared by the HTTP handlers.
package httpx

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Data writes {"data": v} with status.
func Data(c *gin.Context, status int, v any) {
	c.JSON(status, gin.H{"data": v})
}

// Error writes {"error": message} with status and aborts the handler chain.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// Internal logs err under component and writes a 500 without leaking the cause.
func Internal(c *gin.Context, component string, err error) {
	log.Printf("%s: %s %s: %v", component, c.Request.Method, c.FullPath(), err)
	Error(c, http.StatusInternalServerError, "internal server error")
}
