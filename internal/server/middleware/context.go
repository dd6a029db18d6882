// Package middleware holds the gin middleware that resolves callers and records request telemetry.
package middleware

import (
	"context"

	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	clientIPKey = contextKey{"client_ip"}
)

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, id *identitydomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the caller set by Authenticate, or nil, false.
func GetIdentity(ctx context.Context) (*identitydomain.Identity, bool) {
	v, ok := ctx.Value(identityKey).(*identitydomain.Identity)
	return v, ok && v != nil
}

// WithClientIP returns a context carrying the request's client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP stored by ClientIPs, or "unknown". It matches audit.IPExtractor.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
