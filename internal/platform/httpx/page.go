package httpx

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page reads ?limit= and ?offset=. A missing or zero limit yields defaultSize and larger
// limits are capped at maxSize. ok is false when either value is not a non-negative integer.
func Page(c *gin.Context, defaultSize, maxSize int32) (limit, offset int32, ok bool) {
	limit = defaultSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		if n > 0 {
			limit = int32(n)
		}
	}
	if limit > maxSize {
		limit = maxSize
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		offset = int32(n)
	}
	return limit, offset, true
}
