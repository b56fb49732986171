// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/config"
	"github.com/your-org/menu-backend/internal/domain/upload"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
	"github.com/your-org/menu-backend/internal/infrastructure/database"
	"github.com/your-org/menu-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/menu-backend/internal/infrastructure/database/redis"
	"github.com/your-org/menu-backend/internal/infrastructure/database/sqlite"
	"github.com/your-org/menu-backend/internal/infrastructure/storage"
	"github.com/your-org/menu-backend/internal/interfaces/http"
	"github.com/your-org/menu-backend/internal/pkg/logger"
	"github.com/your-org/menu-backend/internal/pkg/metrics"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	appLogger.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"storage":     cfg.Storage.Driver,
	}).Info("Starting application")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to Redis when storage or rate limiting needs it
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		conn, err := redis.NewConnection(cfg)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer conn.Close()
		redisClient = conn.GetClient()
	}

	st, closeStorage, err := openStorage(ctx, cfg, redisClient, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open storage")
	}
	defer closeStorage()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		respCache = cache.New(
			cache.WithDefaultTTL(cfg.Cache.TTL),
			cache.WithMetrics(metrics.NewCacheMetrics(registry)),
		)
	}

	server := http.NewServer(cfg, http.Dependencies{
		Storage:  st,
		Redis:    redisClient,
		Cache:    respCache,
		Uploader: upload.NewService(cfg.ImageHost, appLogger),
		Registry: registry,
		Logger:   appLogger,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			appLogger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	appLogger.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	appLogger.Info("Server shutdown completed")
}

// openStorage builds the storage backend selected by STORAGE_DRIVER
func openStorage(ctx context.Context, cfg *config.Config, redisClient *goredis.Client, appLogger *logrus.Logger) (storage.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		appLogger.Warn("Using in-memory storage; carts and profiles are lost on restart")
		return storage.NewMemory(), func() {}, nil

	case config.StorageRedis:
		st := storage.NewRedis(redisClient, storage.RedisOptions{
			TTL:     cfg.Storage.RedisTTL,
			Channel: cfg.Storage.KeyPrefix + storage.DefaultChangeChannel,
			Logger:  appLogger,
		})
		go func() {
			if err := st.Listen(ctx); err != nil {
				appLogger.WithError(err).Error("Storage change listener stopped")
			}
		}()
		return st, func() {}, nil

	case config.StoragePostgres:
		db, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Health(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("database health check failed: %w", err)
		}
		if err := migrate(cfg, db.GetDB()); err != nil {
			db.Close()
			return nil, nil, err
		}
		return storage.NewSQL(db.GetDB()), func() { db.Close() }, nil

	case config.StorageSQLite:
		db, err := sqlite.NewConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		if err := migrate(cfg, db); err != nil {
			closeDB()
			return nil, nil, err
		}
		return storage.NewSQL(db), closeDB, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func migrate(cfg *config.Config, db *gorm.DB) error {
	migration := database.NewMigration(db)
	if err := migration.RunAutoMigrations(); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	if cfg.IsDevelopment() {
		migration.LogTableInfo(cfg.Storage.KeyPrefix)
	}
	return nil
}
