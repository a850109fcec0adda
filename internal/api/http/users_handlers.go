package http

import (
	"net/http"

	"github.com/mind-engage/quizgenix/internal/auth"
	authmw "github.com/mind-engage/quizgenix/internal/auth/middleware"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	User        auth.User `json:"user"`
}

// POST /auth/register  {"username","password","role": "student|lecturer"}
func RegisterHandler(a *authmw.AuthService, users *auth.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := users.Register(r.Context(), req.Username, req.Password, req.Role)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, tokenResponse{AccessToken: tok, User: u})
	}
}

// POST /auth/login  {"username","password"}
func LoginHandler(a *authmw.AuthService, users *auth.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := users.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, User: u})
	}
}

// POST /users/change-password  {"old_password","new_password"}
func ChangePasswordHandler(users *auth.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		err := users.ChangePassword(r.Context(), authmw.SubjectFromContext(r.Context()), req.OldPassword, req.NewPassword)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
