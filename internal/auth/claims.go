// Package auth adapts the shared token library to fitcoach roles, passwords and route guards.
package auth

import (
	"context"

	"example.com/fitcoach/internal/domain"
	authlib "example.com/fitcoach/pkg/platform/auth"
)

// Claims are the token claims of a signed-in member, moderator or admin.
type Claims = authlib.Claims

// Config holds the token signing settings.
type Config = authlib.Config

// ParseClaims validates a bearer token.
func ParseClaims(token string, cfg Config) (*Claims, error) {
	return authlib.Parse(token, cfg)
}

// WithClaims stores the claims in the request context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return authlib.WithClaims(ctx, claims)
}

// FromContext retrieves claims from context.
func FromContext(ctx context.Context) (*Claims, bool) {
	return authlib.FromContext(ctx)
}

// RoleOf returns the coaching role carried by claims. Missing or unknown roles read as
// domain.RoleUser.
func RoleOf(claims *Claims) domain.Role {
	if claims == nil {
		return domain.RoleUser
	}
	switch role := domain.Role(claims.Role); role {
	case domain.RoleAdmin, domain.RoleModerator:
		return role
	default:
		return domain.RoleUser
	}
}

// HasRole reports whether claims carry one of roles.
func HasRole(claims *Claims, roles ...domain.Role) bool {
	if claims == nil {
		return false
	}
	role := RoleOf(claims)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
