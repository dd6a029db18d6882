// Package service resolves bearer tokens into caller identities.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/seungwongo/EduFlow/internal/identity/domain"
)

// ErrUnauthenticated is returned when the caller's identity cannot be established.
var ErrUnauthenticated = errors.New("unauthenticated")

// TokenValidator validates an access token and returns its subject and role.
type TokenValidator interface {
	ValidateAccess(token string) (userID, role string, err error)
}

// Directory authenticates callers from their access token.
type Directory struct {
	tokens TokenValidator
}

// NewDirectory returns a Directory backed by tokens.
func NewDirectory(tokens TokenValidator) *Directory {
	return &Directory{tokens: tokens}
}

// Authenticate returns the identity for token. Tokens without a known role are treated as participants.
func (d *Directory) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" || d.tokens == nil {
		return nil, ErrUnauthenticated
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	userID, role, err := d.tokens.ValidateAccess(token)
	if err != nil || userID == "" {
		return nil, ErrUnauthenticated
	}
	r := domain.Role(role)
	if !r.Valid() {
		r = domain.RoleParticipant
	}
	return &domain.Identity{UserID: userID, Role: r}, nil
}
