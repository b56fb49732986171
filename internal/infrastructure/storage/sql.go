package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one stored key in the SQL backend
type Entry struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName overrides the table name
func (Entry) TableName() string {
	return "storage_entries"
}

// SQL stores values in a relational table through GORM. Change notifications
// reach watchers of the same instance only.
type SQL struct {
	db       *gorm.DB
	watchers *watchers
}

// NewSQL creates a SQL backed storage; the storage_entries table must exist
func NewSQL(db *gorm.DB) *SQL {
	return &SQL{
		db:       db,
		watchers: newWatchers(),
	}
}

// Get retrieves the value stored at key
func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where(clause.Eq{Column: "key", Value: key}).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set upserts the value stored at key
func (s *SQL) Set(ctx context.Context, key, value string) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	s.watchers.notify(key, value)
	return nil
}

// Delete removes key
func (s *SQL) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where(clause.Eq{Column: "key", Value: key}).Delete(&Entry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", key, result.Error)
	}
	if result.RowsAffected > 0 {
		s.watchers.notify(key, "")
	}
	return nil
}

// Watch registers fn for writes to key made through this instance
func (s *SQL) Watch(key string, fn func(value string)) func() {
	return s.watchers.add(key, fn)
}

// Ping checks the database connection
func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
