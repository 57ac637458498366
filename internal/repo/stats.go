// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the small metadata query the HTTP layer
// uses to build a conditional-response ETag for GET /config.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/lotto-console/internal/domain"
)

// ConfigStats returns whether a configuration row exists and, if so, when it
// was last written.
//
// Return values:
//   - count:     0 before the first save, 1 afterwards
//   - updatedAt: the row's UpdatedAt, or nil when count is 0
//   - err:       database error, if any
func ConfigStats(ctx context.Context, db *gorm.DB) (count int64, updatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ConfigRecord{}).Where("id = ?", domain.SingletonID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Scan into time.Time rather than selecting MAX(), which SQLite returns as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
