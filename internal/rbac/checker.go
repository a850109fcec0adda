package rbac

import (
	"context"
	"strings"
)

// Policy maps a role to the permissions it holds. A permission ending in "*"
// grants every permission with that prefix; "*" alone grants everything.
type Policy map[string][]string

// Allows reports whether role holds perm under p.
func (p Policy) Allows(role, perm string) bool {
	for _, granted := range p[role] {
		if granted == perm || granted == "*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(granted, "*"); ok && strings.HasPrefix(perm, prefix) {
			return true
		}
	}
	return false
}

// AllowsAny reports whether role holds at least one of perms.
func (p Policy) AllowsAny(role string, perms ...string) bool {
	for _, perm := range perms {
		if p.Allows(role, perm) {
			return true
		}
	}
	return false
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the caller's role, or "" when none was attached.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
