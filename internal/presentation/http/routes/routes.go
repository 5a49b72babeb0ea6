package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/receiptflow-api/internal/config"
	"github.com/sangkips/receiptflow-api/internal/infrastructure/storage"
	"github.com/sangkips/receiptflow-api/internal/presentation/http/handler"
	"github.com/sangkips/receiptflow-api/internal/presentation/http/middleware"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Receipt *handler.ReceiptHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg *config.Config
	Log *zap.Logger
	// DocumentsRoot is served at storage.LocalRoute when non-empty.
	DocumentsRoot string
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	if deps.DocumentsRoot != "" {
		router.Static(storage.LocalRoute, deps.DocumentsRoot)
	}

	// Per-client rate limiter shared by the webhook and the API
	rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: rateOf(deps.Cfg.RateLimit),
		BurstSize:         deps.Cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})

	// Payment provider webhook
	webhook := router.Group("/webhook")
	webhook.Use(rateLimiter.Middleware())
	{
		webhook.POST("/payment-success", h.Receipt.Finalize)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())
	{
		registerReceiptRoutes(v1, h)
	}

	return router
}

func registerReceiptRoutes(v1 *gin.RouterGroup, h *Handlers) {
	receipts := v1.Group("/receipts")
	{
		receipts.POST("/finalize", h.Receipt.Finalize)
		receipts.GET("", h.Receipt.List)
		receipts.GET("/order/:order_id", h.Receipt.GetByOrder)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.POST("/:id/document", h.Receipt.Reissue)
	}
}

func rateOf(cfg config.RateLimitConfig) float64 {
	if cfg.Duration <= 0 {
		return float64(cfg.Requests)
	}
	return float64(cfg.Requests) / float64(cfg.Duration)
}
