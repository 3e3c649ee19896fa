// Package router assembles the worker's HTTP surface: health checks, the
// Prometheus scrape endpoint and the webhook ingestion routes.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autoreplyx/backend/internal/api"
	"github.com/autoreplyx/backend/pkg/config"
	"github.com/autoreplyx/backend/pkg/errors"
	"github.com/autoreplyx/backend/pkg/logger"
)

// Router is the main router for the application
type Router struct {
	Engine *gin.Engine
	Config *config.Config
	Logger *logger.Logger
}

// New creates a router with the shared middleware stack installed
func New(cfg *config.Config, log *logger.Logger) *Router {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.Middleware(log))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	return &Router{
		Engine: engine,
		Config: cfg,
		Logger: log,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes(webhook *api.WebhookHandler, registry *prometheus.Registry) {
	r.Engine.GET("/health", r.healthCheckHandler())
	r.Engine.GET("/api/health", r.healthCheckHandler())

	r.Engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	apiRoutes := r.Engine.Group("/api")
	webhook.RegisterRoutes(apiRoutes)
}

// healthCheckHandler returns a simple health check handler
func (r *Router) healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"env":    r.Config.Server.Env,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
