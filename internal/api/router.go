package api

import (
	"context"
	"net/http"
	"time"

	"fridgechef/internal/api/handlers/health"
	recipesHandler "fridgechef/internal/api/handlers/recipes"
	"fridgechef/internal/api/middleware"
	"fridgechef/internal/core/ai"
	"fridgechef/internal/core/analytics"
	"fridgechef/internal/core/cache"
	"fridgechef/internal/core/recipe"
	"fridgechef/internal/core/stream"
	"fridgechef/internal/core/vision"
	"fridgechef/internal/infrastructure/config"
	"fridgechef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// Batch calls must finish inside this bound; the stream path manages
	// its own lifetime through client disconnect.
	batchTimeout = 120 * time.Second

	jsonBodyLimit  = 1 << 20  // 1MB for ingredient lists
	imageBodyLimit = 10 << 20 // 10MB for photo uploads
)

// Deps are the initialized collaborators the router wires into handlers.
type Deps struct {
	Client     ai.Client
	Tier       *cache.Tier
	Sink       *analytics.Sink
	Recognizer vision.Recognizer
}

// SetupRouter assembles middleware, handlers and routes.
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	common.LogInfo("starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Session-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	service := recipe.NewService(deps.Client, deps.Tier, deps.Sink, cfg)
	relay := stream.NewRelay(deps.Client, deps.Sink, cfg.Generation.DefaultItems)

	recipeHandler := recipesHandler.NewHandler(service, relay, deps.Sink)
	scanHandler := recipesHandler.NewScanHandler(deps.Recognizer, deps.Sink)
	healthHandler := health.NewHandler(cfg, deps.Tier)

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg))
	{
		batch := api.Group("")
		batch.Use(middleware.BodySizeLimit(jsonBodyLimit))
		batch.Use(batchDeadline())
		batch.POST("/recipes", recipeHandler.HandleGenerate)

		// No deadline middleware here: a stream lives as long as the
		// client keeps reading.
		streamGroup := api.Group("")
		streamGroup.Use(middleware.BodySizeLimit(jsonBodyLimit))
		streamGroup.POST("/recipes/stream", recipeHandler.HandleStream)

		scan := api.Group("")
		scan.Use(middleware.BodySizeLimit(imageBodyLimit))
		scan.Use(batchDeadline())
		scan.POST("/scan", scanHandler.HandleScan)
	}

	common.LogInfo("router setup completed",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("batch_timeout", batchTimeout),
	)

	return router
}

// batchDeadline bounds a request and converts a deadline overrun into a
// 504 when the handler has not already written a response.
func batchDeadline() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), batchTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", batchTimeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
		}
	}
}
