package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/response"
)

const healthTimeout = 2 * time.Second

// Checker is a dependency that can report whether it is reachable.
type Checker func(ctx context.Context) error

// HealthHandler reports service and dependency status.
type HealthHandler struct {
	checks    map[string]Checker
	llmModel  string
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a HealthHandler. checks maps dependency names
// (e.g. "postgres", "redis") to their probes.
func NewHealthHandler(checks map[string]Checker, llmModel string, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		llmModel:  llmModel,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Returns 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	response.Success(c, status, gin.H{
		"status":       state,
		"version":      config.Version,
		"llm_model":    h.llmModel,
		"dependencies": deps,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
		"goroutines":   runtime.NumGoroutine(),
	})
}
