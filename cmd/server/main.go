// CHALLENGE - refugee education policy game server
package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/challenge-game/internal/agent"
	"github.com/ashureev/challenge-game/internal/api"
	"github.com/ashureev/challenge-game/internal/config"
	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/feed"
	"github.com/ashureev/challenge-game/internal/game"
	"github.com/ashureev/challenge-game/internal/identity"
	"github.com/ashureev/challenge-game/internal/middleware"
	"github.com/ashureev/challenge-game/internal/openrouter"
	"github.com/ashureev/challenge-game/internal/store"
	"github.com/ashureev/challenge-game/internal/transcript"
	"github.com/ashureev/challenge-game/web"
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
	slog.Info("Database connected", "path", cfg.DBPath)

	seed := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	var speaker agent.Speaker = agent.NewCannedSpeaker(rand.New(rand.NewPCG(seed.Uint64(), seed.Uint64())))
	if cfg.LLMEnabled() {
		llm := openrouter.NewClient(cfg.OpenRouter.APIKey, cfg.OpenRouter.BaseURL, cfg.OpenRouter.RequestTimeout)
		speaker = agent.NewLLMSpeaker(llm, agent.LLMConfig{
			Model:          cfg.OpenRouter.Model,
			RequestTimeout: cfg.OpenRouter.RequestTimeout,
		}, speaker, logger)
		slog.Info("Agents speak through OpenRouter", "model", cfg.OpenRouter.Model)
	} else {
		slog.Info("Agents use canned responses (OPENROUTER_API_KEY not set)")
	}

	transcripts, err := transcript.New(transcript.Config{
		Enabled:   cfg.Transcript.Enabled,
		Dir:       cfg.Transcript.Dir,
		QueueSize: cfg.Transcript.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcripts.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	// Initialize services.
	sessions := game.NewManager(game.ManagerConfig{
		Repo:    repo,
		Speaker: speaker,
		Rand:    seed,
	})
	hub := feed.NewHub(logger)
	sessions.Observe(hub.Publish)
	sessions.Observe(transcript.Observer(transcripts))

	limiter := api.NewRateLimiter(cfg.ArgumentLimit.Limit, cfg.ArgumentLimit.Window)
	defer limiter.Stop()

	// Initialize handlers.
	baseHandler := api.NewHandler(sessions, hub)
	healthHandler := api.NewHealthHandler(repo)
	gameHandler := api.NewGameHandler(baseHandler, limiter)
	wsHandler := feed.NewWebSocketHandler(hub, func(ctx context.Context, sessionID string) ([]domain.DiscussionEntry, error) {
		ctrl, err := sessions.Get(ctx, sessionID)
		if errors.Is(err, game.ErrSessionNotFound) {
			return nil, feed.ErrUnknownSession
		}
		if err != nil {
			return nil, err
		}
		return ctrl.History(), nil
	}, cfg.AllowedOrigins, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware)

	// Public routes.
	healthHandler.RegisterHealth(r)
	gameHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/discussion", wsHandler.ServeHTTP)

	// Serve embedded browser controller (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Agent replies may come from a language model, so writes get a long timeout.
	// The websocket feed hijacks its connection and is not bound by it.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Start TTL worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game.StartTTLWorker(ctx, sessions, cfg.TTLSweepInterval, cfg.SessionTTL, func(sessionID string) {
		hub.CloseSession(sessionID)
		limiter.Forget(sessionID)
	})

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
