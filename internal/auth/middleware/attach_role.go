package auth

import (
	"context"
	"net/http"

	"github.com/mind-engage/quizgenix/internal/rbac"
)

// RoleSource looks up the authoritative role of a user id.
type RoleSource interface {
	Role(ctx context.Context, userID string) (string, error)
}

// AttachRoleFromDB replaces the token's role claim with the stored role, so
// role changes apply before the token expires. Tokens for unknown users are
// rejected.
func AttachRoleFromDB(src RoleSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, err := src.Role(ctx, SubjectFromContext(ctx))
			if err != nil || role == "" {
				unauthorized(w, "unknown user")
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
		})
	}
}
