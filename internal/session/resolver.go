// Package session turns an Authorization header into the id of a signed-in
// user.
package session

import (
	"context"
	"strings"

	"go-utang-ledger/internal/repository"
	"go-utang-ledger/pkg/jwt"
)

type Resolver struct {
	users repository.UserRepository
	cache VersionCache
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(users repository.UserRepository, cache VersionCache) *Resolver {
	return &Resolver{users: users, cache: cache}
}

// BearerToken extracts the token from "Bearer <token>".
func BearerToken(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// Resolve returns the user id of a valid session, or "" for none.
func (r *Resolver) Resolve(ctx context.Context, authHeader string) string {
	return r.ResolveToken(ctx, BearerToken(authHeader))
}

// ResolveToken validates the token and checks its version against the
// user's current one.
func (r *Resolver) ResolveToken(ctx context.Context, token string) string {
	claims, err := jwt.ValidateToken(token)
	if err != nil {
		return ""
	}

	if r.cache != nil {
		if v, ok := r.cache.Get(ctx, claims.UserID); ok && v == claims.TokenVersion {
			return claims.UserID
		}
	}

	user, err := r.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return ""
	}
	if user.TokenVersion != claims.TokenVersion {
		return ""
	}

	if r.cache != nil {
		r.cache.Set(ctx, user.ID, user.TokenVersion)
	}
	return user.ID
}

// Forget drops the cached version after it was rotated.
func (r *Resolver) Forget(ctx context.Context, userID string) {
	if r.cache != nil {
		r.cache.Delete(ctx, userID)
	}
}
