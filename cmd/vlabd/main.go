package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-vlab/internal/api/http"
	auth "github.com/mind-engage/mindengage-vlab/internal/auth/middleware"
	"github.com/mind-engage/mindengage-vlab/internal/config"
	"github.com/mind-engage/mindengage-vlab/internal/db"
	"github.com/mind-engage/mindengage-vlab/internal/grading"
	"github.com/mind-engage/mindengage-vlab/internal/lab"
	"github.com/mind-engage/mindengage-vlab/internal/storage"
	syncx "github.com/mind-engage/mindengage-vlab/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("vlabd stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		return err
	}
	defer dbh.Close()
	if err := db.EnsureUser(ctx, dbh, cfg.AdminUser, "admin", cfg.AdminPassHash); err != nil {
		return err
	}

	// --- Grading ---
	if cfg.CriteriaDir != "" {
		loaded, err := grading.LoadTemplatesDir(cfg.CriteriaDir)
		if err != nil {
			return err
		}
		logger.Info("templates loaded", "dir", cfg.CriteriaDir, "names", loaded)
	}
	engine := grading.NewEngine(
		grading.WithLegacyMaxScore(cfg.LegacyMaxScore),
		grading.WithLogger(logger),
	)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return err
	}
	svc := lab.NewService(lab.NewSQLStore(dbh, cfg.DBDriver), engine,
		lab.WithBlobStore(bs),
		lab.WithEvents(syncx.NewEventRepo(dbh), cfg.SiteID),
		lab.WithLogger(logger),
	)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Service:     svc,
		DB:          dbh,
		Auth:        auth.NewAuthService(cfg.AuthHMACSecret),
		Blobs:       bs,
		RolesFromDB: cfg.Mode == config.ModeOnline,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver,
		"templates", grading.TemplateNames(), "legacy_max_score", cfg.LegacyMaxScore)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
