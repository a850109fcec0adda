package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/quizgenix/internal/auth"
	authmw "github.com/mind-engage/quizgenix/internal/auth/middleware"
	"github.com/mind-engage/quizgenix/internal/config"
	"github.com/mind-engage/quizgenix/internal/db"
	"github.com/mind-engage/quizgenix/internal/events"
	"github.com/mind-engage/quizgenix/internal/rbac"
	"github.com/mind-engage/quizgenix/internal/service"
)

type Deps struct {
	Config  config.Config
	DB      *db.DB
	Service *service.Service
	Users   *auth.Users
	Auth    *authmw.AuthService
	Events  *events.Log
	Logger  *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(WithLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.Ping(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if d.Config.EnableLocalAuth {
		r.Post("/auth/login", LoginHandler(d.Auth, d.Users))
		if d.Config.EnableRegistration {
			r.Post("/auth/register", RegisterHandler(d.Auth, d.Users))
		}
	}

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		pr.Use(authmw.AttachRoleFromDB(d.Users))

		pr.Post("/users/change-password", ChangePasswordHandler(d.Users))

		// Quizzes
		pr.With(rbac.Require(rbac.PermQuizCreate)).
			Post("/quizzes", CreateQuizHandler(d.Service))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/quizzes", ListQuizzesHandler(d.Service))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/quizzes/{quizID}", GetQuizHandler(d.Service))
		pr.With(rbac.Require(rbac.PermQuizUpdateOwn)).
			Patch("/quizzes/{quizID}", UpdateQuizHandler(d.Service))
		pr.With(rbac.Require(rbac.PermQuizExport)).
			Get("/quizzes/{quizID}/export", ExportQuizHandler(d.Service))
		pr.With(rbac.Require(rbac.PermResultsView)).
			Get("/quizzes/{quizID}/results", QuizResultsHandler(d.Service))

		// Sessions
		pr.With(rbac.Require(rbac.PermSessionTake)).
			Post("/quizzes/{quizID}/sessions", StartSessionHandler(d.Service))
		pr.With(rbac.Require(rbac.PermSessionTake)).
			Get("/sessions/{token}", GetSessionHandler(d.Service))
		pr.With(rbac.Require(rbac.PermSessionTake)).
			Put("/sessions/{token}/answers", SubmitAnswerHandler(d.Service))
		pr.With(rbac.Require(rbac.PermSessionTake)).
			Post("/sessions/{token}/finish", FinishSessionHandler(d.Service))

		pr.With(rbac.RequireAny(rbac.PermAttemptOwn, rbac.PermResultsView)).
			Get("/attempts", ListAttemptsHandler(d.Service))

		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsView)).
				Get("/events", ListEventsHandler(d.Events))
		}
	})

	return r
}
