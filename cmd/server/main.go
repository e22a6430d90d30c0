package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/database"
	"github.com/stemsi/interview-agent/internal/faq"
	"github.com/stemsi/interview-agent/internal/handler"
	"github.com/stemsi/interview-agent/internal/llm"
	"github.com/stemsi/interview-agent/internal/logger"
	"github.com/stemsi/interview-agent/internal/program"
	"github.com/stemsi/interview-agent/internal/repository"
	"github.com/stemsi/interview-agent/internal/router"
	"github.com/stemsi/interview-agent/internal/service"
	"github.com/stemsi/interview-agent/internal/summary"
	"github.com/stemsi/interview-agent/internal/validator"
	"github.com/stemsi/interview-agent/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("llm_backend", cfg.LLMBackend).
		Msg("Starting " + config.ProjectName + " v" + config.Version)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.ReviewerPasswordHash == "" {
		log.Warn().Msg("REVIEWER_PASSWORD_HASH not set; reviewer login is disabled")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Program Content ──────────────────────────────────────────
	content, err := program.Load(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load program content")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize LLM Client ─────────────────────────────────────────
	cache, err := llm.NewCache(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM cache")
	}
	llmClient, err := llm.NewClient(cfg, cache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}
	defer llmClient.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	sessionRepo := repository.NewSessionRepository(pool)
	stateRepo := repository.NewRedisStateRepository(rdb, cfg.StateTTL)
	archiveQueue := repository.NewArchiveQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	responder := faq.NewResponder(llmClient, content.FAQ, log)
	summarizer := summary.NewSummarizer(content.Questions, content.Principles, llmClient, summary.Options{
		UseLLM:    cfg.UseLLMSummary,
		Cooldown:  cfg.SummaryCooldown,
		AnswerCap: cfg.SummaryAnswerCap,
	}, log)

	authService := service.NewAuthService(cfg)
	interviewService := service.NewInterviewService(
		content.Questions,
		cfg.MinAnswerChars,
		stateRepo,
		responder,
		summarizer,
		archiveQueue,
		log,
	)
	reviewService := service.NewReviewService(sessionRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Interview: handler.NewInterviewHandler(interviewService, log),
		Review:    handler.NewReviewHandler(reviewService),
		WS:        handler.NewWSHandler(interviewService, log, cfg.AllowedOrigins),
		Health: handler.NewHealthHandler(map[string]handler.Checker{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, llmClient.Model(), log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	archiveWorker := worker.NewArchiveWorker(sessionRepo, rdb, log)
	go func() {
		defer close(workerDone)
		archiveWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the archive worker and wait for the queue to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Archive worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
