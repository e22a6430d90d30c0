package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/console"
	"github.com/stemsi/interview-agent/internal/database"
	"github.com/stemsi/interview-agent/internal/faq"
	"github.com/stemsi/interview-agent/internal/llm"
	"github.com/stemsi/interview-agent/internal/logger"
	"github.com/stemsi/interview-agent/internal/program"
	"github.com/stemsi/interview-agent/internal/summary"
	"golang.org/x/term"
)

func main() {
	faqMode := flag.Bool("faq", false, "Run an extra standalone FAQ session after the interview")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// Logs go to stderr so they stay out of the conversation.
	log := logger.SetupWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Load Program Content ──────────────────────────────────────────
	content, err := program.Load(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load program content")
	}

	// ─── Initialize LLM Client ─────────────────────────────────────────
	var rdb *redis.Client
	if cfg.LLMCache == config.CacheRedis {
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
	}

	cache, err := llm.NewCache(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM cache")
	}
	llmClient, err := llm.NewClient(cfg, cache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}
	defer llmClient.Close()

	responder := faq.NewResponder(llmClient, content.FAQ, log)
	summarizer := summary.NewSummarizer(content.Questions, content.Principles, llmClient, summary.Options{
		UseLLM:    cfg.UseLLMSummary,
		Cooldown:  cfg.SummaryCooldown,
		AnswerCap: cfg.SummaryAnswerCap,
	}, log)

	opts := console.Options{
		Questions:      content.Questions,
		MinAnswerChars: cfg.MinAnswerChars,
		SessionDir:     cfg.SessionDir,
		Echo:           !term.IsTerminal(int(os.Stdin.Fd())),
		VoiceInput:     cfg.UserVoiceInput,
		VoiceOutput:    cfg.AgentVoiceOutput,
	}
	c := console.New(os.Stdin, os.Stdout, responder, summarizer, opts, log)

	// ─── Run ───────────────────────────────────────────────────────────
	if err := c.Run(ctx); err != nil {
		if errors.Is(err, console.ErrInterrupted) {
			fmt.Println("\n\nInterview interrupted. Goodbye!")
			return
		}
		log.Error().Err(err).Msg("Interview failed")
		os.Exit(1)
	}

	if *faqMode {
		fmt.Println("\n--- FAQ Mode (standalone) ---")
		if _, err := c.FAQLoop(ctx); err != nil && !errors.Is(err, console.ErrInterrupted) {
			log.Error().Err(err).Msg("FAQ mode failed")
		}
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
