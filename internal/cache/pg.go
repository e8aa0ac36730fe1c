package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
)

// KeyValueStore stores arbitrary key-value pairs for cache state
type KeyValueStore struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (KeyValueStore) TableName() string {
	return "key_value_store"
}

// PGStore persists blobs in a Postgres key_value_store table
type PGStore struct {
	db   *gorm.DB
	json adapter.JSON
}

// NewPGStore creates a Postgres-backed store
func NewPGStore(db *gorm.DB, json adapter.JSON) *PGStore {
	return &PGStore{
		db:   db,
		json: json,
	}
}

// Migrate creates the key_value_store table if it does not exist
func (s *PGStore) Migrate() error {
	return s.db.AutoMigrate(&KeyValueStore{})
}

// Get reads the JSON blob stored under key into value
func (s *PGStore) Get(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	var kv KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrCacheMiss
		}
		return fmt.Errorf("failed to read cache %q: %w", key, err)
	}

	if err := s.json.Unmarshal([]byte(kv.Value), value); err != nil {
		return fmt.Errorf("failed to decode cache %q: %w", key, err)
	}

	return nil
}

// Set writes value as a JSON blob under key
func (s *PGStore) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	data, err := s.json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache %q: %w", key, err)
	}

	kv := KeyValueStore{
		Key:   key,
		Value: string(data),
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to write cache %q: %w", key, err)
	}

	return nil
}

// Delete removes the blob stored under key
func (s *PGStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&KeyValueStore{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove cache %q: %w", key, err)
	}

	return nil
}
