package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/quizgenix/internal/apperr"
	authmw "github.com/mind-engage/quizgenix/internal/auth/middleware"
	"github.com/mind-engage/quizgenix/internal/service"
)

// POST /quizzes/{quizID}/sessions
// 201 for a new session, 200 when the caller's live session is returned.
func StartSessionHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.StartSession(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		status := http.StatusCreated
		if v.Resumed {
			status = http.StatusOK
		}
		respondJSON(w, status, v)
	}
}

// GET /sessions/{token}
func GetSessionHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.ResumeSession(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// PUT /sessions/{token}/answers  {"question_id": 1, "selected_index": 2}
func SubmitAnswerHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID    *int `json:"question_id"`
			SelectedIndex *int `json:"selected_index"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.QuestionID == nil || req.SelectedIndex == nil {
			writeError(w, r, apperr.Validation("question_id and selected_index are required"))
			return
		}
		ok, err := svc.SubmitAnswer(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "token"),
			*req.QuestionID, *req.SelectedIndex)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"accepted": ok})
	}
}

// POST /sessions/{token}/finish
func FinishSessionHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.FinishSession(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// GET /attempts
// The caller's own graded attempts, most recent first.
func ListAttemptsHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.AttemptHistory(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
