package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/frete/internal/config"
	"github.com/Simplici0/frete/internal/db"
	"github.com/Simplici0/frete/internal/migrations"
	"github.com/Simplici0/frete/internal/observability"
	"github.com/Simplici0/frete/internal/quoting"
	"github.com/Simplici0/frete/internal/seed"
	"github.com/Simplici0/frete/internal/store"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	auth   *authService
	store  *store.Store
	quotes *quoting.Service
	logger *zap.Logger
}

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	for _, warning := range cfg.Warnings() {
		logger.Warn("configuration incomplete", zap.String("detail", warning))
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsDev() {
		stats, err := seed.Run(ctx, database)
		if err != nil {
			logger.Fatal("failed to seed database", zap.Error(err))
		}
		logger.Info("seed applied", zap.Int("inserts", stats.Inserts))
	}

	st := store.New(database)
	auth := newAuthService(st, cfg.SessionSecret)
	if err := auth.ensureAdminUser(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("failed to ensure admin user", zap.Error(err))
	}

	srv := &server{
		auth:   auth,
		store:  st,
		quotes: quoting.NewService(st, logger),
		logger: logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.AppEnv))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(observability.RequestLogger(s.logger))
	r.Use(observability.Recoverer(s.logger))

	r.Get("/health", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Get("/products", s.handleProductsList)
	r.Get("/destinations/special-taxes", s.handleDestinationsWithTaxes)
	r.Get("/versions", s.handleVersionsList)

	r.Post("/quotes/preview", s.handleQuotePreview)
	r.Post("/quotes", s.handleQuoteCreate)
	r.Get("/quotes", s.handleQuotesList)
	r.Get("/quotes/{id}", s.handleQuoteDetail)
	r.Get("/quotes/{id}/text", s.handleQuoteText)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/versions", s.handleVersionCreate)
		r.Post("/versions/{id}/activate", s.handleVersionActivate)
		r.Put("/special-taxes", s.handleSpecialTaxesReplace)
	})

	return r
}
