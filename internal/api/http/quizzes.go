package http

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/quizgenix/internal/auth/middleware"
	"github.com/mind-engage/quizgenix/internal/export"
	"github.com/mind-engage/quizgenix/internal/quiz"
	"github.com/mind-engage/quizgenix/internal/rbac"
	"github.com/mind-engage/quizgenix/internal/service"
)

func actorFrom(r *http.Request) service.Actor {
	return service.Actor{
		UserID: authmw.SubjectFromContext(r.Context()),
		Role:   rbac.RoleFromContext(r.Context()),
	}
}

// POST /quizzes  {"title","subject","topic","difficulty","count"}
func CreateQuizHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CreateQuizInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		in.CreatorID = authmw.SubjectFromContext(r.Context())
		q, err := svc.CreateQuiz(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, q)
	}
}

// GET /quizzes?q=&limit=&offset=
func ListQuizzesHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListQuizzes(r.Context(), actorFrom(r), quiz.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /quizzes/{quizID}
func GetQuizHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.GetQuiz(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// PATCH /quizzes/{quizID}  {"title"?, "active"?}
func UpdateQuizHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title  *string `json:"title"`
			Active *bool   `json:"active"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := svc.UpdateQuiz(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"),
			quiz.MetaUpdate{Title: req.Title, Active: req.Active})
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, q.Summary())
	}
}

// GET /quizzes/{quizID}/export?format=qti|json
func ExportQuizHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, err := export.Lookup(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		q, err := svc.ExportQuiz(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := exp.Export(&buf, q); err != nil {
			writeError(w, r, err)
			return
		}
		name := export.Filename(q, exp)
		attachment(w, exp.ContentType(), name)
		http.ServeContent(w, r, name, q.UpdatedAt, bytes.NewReader(buf.Bytes()))
	}
}

// GET /quizzes/{quizID}/results[?format=csv]
func QuizResultsHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		results, err := svc.QuizResults(r.Context(), actorFrom(r), quizID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
			var buf bytes.Buffer
			if err := export.WriteResultsCSV(&buf, results); err != nil {
				writeError(w, r, err)
				return
			}
			attachment(w, "text/csv", "results-"+quizID+".csv")
			_, _ = w.Write(buf.Bytes())
			return
		}
		respondJSON(w, http.StatusOK, results)
	}
}
