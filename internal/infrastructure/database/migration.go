// internal/infrastructure/database/migration.go
package database

import (
	"fmt"
	"log"

	"github.com/your-org/menu-backend/internal/infrastructure/storage"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	models := []interface{}{
		&storage.Entry{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// EntryCount returns the number of stored keys, optionally restricted to a key prefix
func (m *Migration) EntryCount(prefix string) (int64, error) {
	var count int64
	query := m.db.Model(&storage.Entry{})
	if prefix != "" {
		query = query.Where("key LIKE ?", prefix+"%")
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LogTableInfo prints how many carts and profiles are stored under prefix
func (m *Migration) LogTableInfo(prefix string) {
	log.Println("📊 Storage table information:")
	for _, kind := range []string{"cart", "customer"} {
		count, err := m.EntryCount(prefix + kind + ":")
		if err != nil {
			log.Printf("⚠️ Failed to count %s entries: %v", kind, err)
			continue
		}
		log.Printf("%-10s | %d records", kind, count)
	}
}
