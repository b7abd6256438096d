package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/moodtune/moodtune-backend/internal/config"
	"github.com/moodtune/moodtune-backend/internal/handlers"
	"github.com/moodtune/moodtune-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	recommendHandler *handlers.RecommendHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Recommendations — Spotify passthrough authenticates with the
	// caller's Spotify bearer token, not an app JWT; mockup is open.
	api.Get("/recommend", recommendHandler.GetRecommendations)
	api.Get("/recommend/mockup", recommendHandler.GetMockupRecommendations)

	// Analytics — JWT required
	analytics := api.Group("/analytics", middleware.JWTProtected(cfg))
	analytics.Get("/stats", analyticsHandler.GetStats)
	analytics.Get("/history", analyticsHandler.GetHistory)
	analytics.Post("/save-analysis", analyticsHandler.SaveAnalysis)
	analytics.Get("/analysis/:id", analyticsHandler.GetAnalysisDetail)
}
