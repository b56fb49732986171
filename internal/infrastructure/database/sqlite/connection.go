// internal/infrastructure/database/sqlite/connection.go
package sqlite

import (
	"fmt"
	"log"

	"github.com/your-org/menu-backend/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the single-file database used by the sqlite storage driver
func NewConnection(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Storage.SQLitePath), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.Storage.SQLitePath, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite serializes writers; one connection avoids "database is locked"
	sqlDB.SetMaxOpenConns(1)

	log.Printf("✅ SQLite database opened at %s", cfg.Storage.SQLitePath)
	return db, nil
}
