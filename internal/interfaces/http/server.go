// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/config"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
	"github.com/your-org/menu-backend/internal/infrastructure/storage"
	"github.com/your-org/menu-backend/internal/interfaces/http/handlers"
	"github.com/your-org/menu-backend/internal/interfaces/http/middleware"
	"github.com/your-org/menu-backend/internal/interfaces/http/routes"
	"github.com/your-org/menu-backend/internal/pkg/metrics"
)

// Dependencies are the collaborators the server wires into its handlers
type Dependencies struct {
	Storage  storage.Storage
	Redis    *redis.Client // optional; enables rate limiting
	Cache    *cache.Cache  // nil disables response caching
	Uploader handlers.ImageUploader
	Registry *prometheus.Registry
	Logger   *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	deps        Dependencies
	gin         *gin.Engine
	httpServer  *http.Server
	httpMetrics *metrics.HTTPMetrics
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance with its routes mounted
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		config:      cfg,
		deps:        deps,
		httpMetrics: metrics.NewHTTPMetrics(deps.Registry),
		startedAt:   time.Now(),
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.gin = gin.New()
	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		deps.Logger.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the configured HTTP handler
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.deps.Logger.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"api_base": fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
		"storage":  s.config.Storage.Driver,
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.deps.Logger.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.deps.Logger.Info("HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	// Recovery middleware - recover from panics
	s.gin.Use(gin.Recovery())

	s.gin.Use(middleware.Logger(s.deps.Logger, s.httpMetrics))
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())

	var limiter middleware.Limiter
	if s.deps.Redis != nil {
		limiter = middleware.NewRedisLimiter(s.deps.Redis)
	}
	s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, limiter, s.deps.Logger))

	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	s.gin.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})))

	keys := handlers.KeySpace{Prefix: s.config.Storage.KeyPrefix}
	locks := handlers.NewSessionLocks()
	logger := s.deps.Logger

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, routes.Handlers{
		Cart:     handlers.NewCartHandler(s.deps.Storage, keys, locks, s.deps.Cache, logger),
		Customer: handlers.NewCustomerHandler(s.deps.Storage, keys, locks, s.deps.Cache, logger),
		Upload:   handlers.NewUploadHandler(s.deps.Uploader, s.config.ImageHost.FieldName, logger),
		Cache:    handlers.NewCacheHandler(s.deps.Cache, logger),
	},
		middleware.Session(s.config.Security.SecureCookies),
		middleware.ResponseCache(s.deps.Cache, s.config.Cache.TTL),
	)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"cart":     "/api/v1/cart",
					"customer": "/api/v1/customer",
					"uploads":  "/api/v1/uploads/image",
					"cache":    "/api/v1/cache",
				},
			})
		})
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := s.deps.Storage.Ping(ctx); err != nil {
		s.deps.Logger.WithError(err).Warn("Storage health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "storage ping failed",
		})
		return
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "redis ping failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
		"storage":     s.config.Storage.Driver,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).String(),
	})
}
