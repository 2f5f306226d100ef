package cart

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/znasser/storefront/internal/models"
)

// Storage is the durable key-value port carts are persisted through.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// GormStorage keeps snapshots in the cart_records table.
type GormStorage struct {
	DB *gorm.DB
}

func (s *GormStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var rec models.CartRecord
	err := s.DB.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Payload, true, nil
}

func (s *GormStorage) Set(ctx context.Context, key, value string) error {
	rec := models.CartRecord{
		Key:       key,
		Payload:   value,
		UpdatedAt: time.Now().Unix(),
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&rec).Error
}
