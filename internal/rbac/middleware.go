package rbac

import (
	"encoding/json"
	"net/http"
)

// Require lets a request through only when the caller's role holds perm.
func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return RolePermissions.Allows(role, perm) })
}

// RequireAny lets a request through when the role holds any of perms.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return RolePermissions.AllowsAny(role, perms...) })
}

func guard(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role := RoleFromContext(r.Context()); role == "" || !allowed(role) {
				denied(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type deniedBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func denied(w http.ResponseWriter) {
	var body deniedBody
	body.Error.Kind = "forbidden"
	body.Error.Message = "missing permission"
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(body)
}
