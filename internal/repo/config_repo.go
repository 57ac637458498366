package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/lotto-console/internal/domain"
)

// GetConfig returns the stored configuration row, or ErrNotFound before
// the first save.
func GetConfig(ctx context.Context, db *gorm.DB) (*domain.ConfigRecord, error) {
	var rec domain.ConfigRecord
	if err := db.WithContext(ctx).First(&rec, domain.SingletonID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveConfig replaces the stored document with body, creating the row on
// first use.
func SaveConfig(ctx context.Context, db *gorm.DB, body []byte) (*domain.ConfigRecord, error) {
	now := time.Now().UTC()
	rec := &domain.ConfigRecord{ID: domain.SingletonID, Body: body, CreatedAt: now, UpdatedAt: now}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return nil, err
	}
	return GetConfig(ctx, db)
}
