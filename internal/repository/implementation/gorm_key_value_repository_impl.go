package implementation

import (
	"context"
	"errors"

	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/repository/contract"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormKeyValueRepositoryImpl struct {
	db *gorm.DB
}

func NewGormKeyValueRepository(db *gorm.DB) contract.KeyValueRepository {
	return &GormKeyValueRepositoryImpl{
		db: db,
	}
}

func (r *GormKeyValueRepositoryImpl) GetItem(ctx context.Context, key string) (string, bool, error) {
	var entry model.CacheEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(entry.Value), true, nil
}

// SetItem upserts on the key so a re-extraction replaces the previous document.
func (r *GormKeyValueRepositoryImpl) SetItem(ctx context.Context, key string, value string) error {
	entry := model.CacheEntry{
		Key:   key,
		Value: datatypes.JSON(value),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
