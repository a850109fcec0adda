package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	api "github.com/mind-engage/quizgenix/internal/api/http"
	"github.com/mind-engage/quizgenix/internal/auth"
	authmw "github.com/mind-engage/quizgenix/internal/auth/middleware"
	"github.com/mind-engage/quizgenix/internal/config"
	"github.com/mind-engage/quizgenix/internal/db"
	"github.com/mind-engage/quizgenix/internal/events"
	"github.com/mind-engage/quizgenix/internal/quiz"
	"github.com/mind-engage/quizgenix/internal/service"
	"github.com/mind-engage/quizgenix/internal/session"
	"github.com/mind-engage/quizgenix/internal/synth"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().String("db-driver", "", "sqlite or postgres (overrides DB_DRIVER)")
	serveCmd.Flags().String("db-dsn", "", "Database DSN (overrides DB_DSN)")
	serveCmd.Flags().String("knowledge", "", "Path to a catalog JSON file (overrides KNOWLEDGE_PATH)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.HTTPAddr = v
	}
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
		cfg.DBDSN = v
	}
	if v, _ := cmd.Flags().GetString("knowledge"); v != "" {
		cfg.KnowledgePath = v
	}

	log, err := newLogger(cmd, os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return err
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, driver, cfg.DBDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	defer dbh.Close()

	// --- Knowledge ---
	cat, err := loadCatalog(cfg.KnowledgePath)
	if err != nil {
		return err
	}
	sy := synth.New(cat, synth.WithLogger(log), synth.WithMaxCount(cfg.MaxQuestions))

	// --- Users ---
	users := auth.NewUsers(dbh)
	if err := users.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	evlog := events.NewLog(dbh, cfg.SiteID)
	svc := service.New(quiz.NewSQLStore(dbh), session.NewSQLStore(dbh), sy,
		service.WithEvents(evlog),
		service.WithSessionTTL(cfg.SessionTTL),
		service.WithLogger(log))

	handler := api.NewRouter(api.Deps{
		Config:  cfg,
		DB:      dbh,
		Service: svc,
		Users:   users,
		Auth:    authmw.NewAuthService(cfg.AuthSecret, cfg.TokenTTL),
		Events:  evlog,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("listening",
		"addr", cfg.HTTPAddr,
		"mode", cfg.Mode,
		"db", driver,
		"knowledge_version", cat.Version())

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadCatalog(path string) (*synth.Catalog, error) {
	if path == "" {
		return synth.DefaultCatalog()
	}
	cat, err := synth.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge catalog %s: %w", path, err)
	}
	return cat, nil
}
