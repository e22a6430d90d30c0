package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/handler"
	"github.com/stemsi/interview-agent/internal/middleware"
	"github.com/stemsi/interview-agent/internal/response"
	"github.com/stemsi/interview-agent/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Interview *handler.InterviewHandler
	Review    *handler.ReviewHandler
	WS        *handler.WSHandler
	Health    *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.Health.Health)

	// Rate limiter for candidate-facing routes.
	candidateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(candidateLimiter.Middleware())
	{
		auth.POST("/reviewer/login", handlers.Auth.ReviewerLogin)
		auth.GET("/reviewer/me", middleware.RequireReviewerJWT(authService), handlers.Auth.GetReviewerProfile)
	}

	// ─── 2. Interview Group (Public, Rate Limited) ──────────────────────
	interviews := router.Group("/api/v1/interviews")
	interviews.Use(candidateLimiter.Middleware(), middleware.NoStore())
	{
		interviews.POST("", handlers.Interview.StartInterview)
		interviews.GET("/:id", handlers.Interview.GetInterview)
		interviews.POST("/:id/answers", handlers.Interview.SubmitAnswer)
		interviews.POST("/:id/faq", handlers.Interview.AskFAQ)
		interviews.POST("/:id/finish", handlers.Interview.FinishInterview)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(candidateLimiter.Middleware())
	{
		ws.GET("/interviews/stream", handlers.WS.InterviewStream)
	}

	// ─── 4. Reviewer Group (JWT) ───────────────────────────────────────
	reviewer := router.Group("/api/v1/reviewer")
	reviewer.Use(
		middleware.RequireReviewerJWT(authService),
		middleware.NoStore(),
		middleware.Brotli(),
	)
	{
		reviewer.GET("/sessions", handlers.Review.ListSessions)
		reviewer.GET("/sessions/:id", handlers.Review.GetSession)
	}

	return router
}
