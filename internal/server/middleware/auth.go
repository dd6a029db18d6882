package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	"github.com/seungwongo/EduFlow/internal/platform/httpx"
)

const (
	bearerPrefix = "bearer "
	// TokenCookie is the cookie the web client stores its access token in.
	TokenCookie = "auth-token"
)

// Authenticator resolves an access token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identitydomain.Identity, error)
}

// ExtractToken returns the Bearer token from the Authorization header, falling back to the
// auth-token cookie. It returns "" when neither is present or the header is malformed.
func ExtractToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("Authorization")); v != "" {
		if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
			return ""
		}
		return strings.TrimSpace(v[len(bearerPrefix):])
	}
	if ck, err := r.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}

// Authenticate resolves the request token, when there is one, and stores the identity in the
// request context. Invalid or missing tokens pass through; RequireIdentity rejects them.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c.Request)
		if token == "" || auth == nil {
			c.Next()
			return
		}
		id, err := auth.Authenticate(c.Request.Context(), token)
		if err == nil && id != nil {
			c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

// RequireIdentity aborts with 401 unless Authenticate stored an identity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c.Request.Context()); !ok {
			httpx.Error(c, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}
		c.Next()
	}
}

// ClientIPs stores gin's resolved client IP in the request context for the audit logger.
func ClientIPs() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}
