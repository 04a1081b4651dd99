// Moltmatch - discovery and matching engine for Moltbook agents
package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/KatriaDopex/moltmatch/internal/api"
	"github.com/KatriaDopex/moltmatch/internal/config"
	"github.com/KatriaDopex/moltmatch/internal/events"
	"github.com/KatriaDopex/moltmatch/internal/identity"
	"github.com/KatriaDopex/moltmatch/internal/middleware"
	"github.com/KatriaDopex/moltmatch/internal/moltbook"
	"github.com/KatriaDopex/moltmatch/internal/session"
	"github.com/KatriaDopex/moltmatch/internal/simulator"
	"github.com/KatriaDopex/moltmatch/internal/source"
	"github.com/KatriaDopex/moltmatch/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Initialize the engine.
	hub := events.NewHub()
	demoRNG := rand.New(rand.NewSource(time.Now().UnixNano()))
	demoGen := source.NewDemoGenerator(demoRNG)

	svcCfg := session.Config{
		Repo: repo,
		Auth: &moltbook.AuthVerifier{BaseURL: cfg.MoltbookBaseURL},
		LiveSource: func(apiKey string) source.Source {
			return source.NewLiveFetcher(moltbook.NewClient(cfg.MoltbookBaseURL, apiKey))
		},
		Demo:      demoGen,
		DemoAgent: demoGen.MyDemoAgent,
		Events:    hub,
	}

	svc := session.NewService(svcCfg)

	replyRNG := rand.New(rand.NewSource(time.Now().UnixNano() + 1))
	sim := simulator.New(simulator.TimerScheduler{}, replyRNG, svc.ReceiveReply)
	svc.SetReplier(sim)

	var searcher api.Searcher
	if cfg.SearchEnabled {
		searcher = &moltbook.SearchProxy{BaseURL: cfg.MoltbookBaseURL}
	}

	// Initialize handlers.
	handler := api.NewHandler(svc, searcher)
	wsHandler := events.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	handler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/events", wsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout to keep websocket pushes alive
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
