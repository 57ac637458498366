package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/lotto-console/internal/domain"
)

// GetStatus returns the stored status, or a zero record before the worker
// has reported anything.
func GetStatus(ctx context.Context, db *gorm.DB) (*domain.StatusRecord, error) {
	var rec domain.StatusRecord
	err := db.WithContext(ctx).First(&rec, domain.SingletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.StatusRecord{ID: domain.SingletonID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MergeStatus applies the non-nil fields of p to the stored status inside
// one transaction and returns the result.
func MergeStatus(ctx context.Context, db *gorm.DB, p domain.StatusPatch) (*domain.StatusRecord, error) {
	var out domain.StatusRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := domain.StatusRecord{ID: domain.SingletonID}
		if err := tx.FirstOrCreate(&rec, domain.StatusRecord{ID: domain.SingletonID}).Error; err != nil {
			return err
		}
		if p.Balance != nil {
			rec.Balance = *p.Balance
		}
		if p.LatestResult != nil {
			rec.LatestResult = *p.LatestResult
		}
		if p.LastRun != nil {
			t := p.LastRun.UTC()
			rec.LastRun = &t
		}
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
