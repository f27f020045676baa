package model

import (
	"time"

	"gorm.io/datatypes"
)

// CacheEntry is one row of the persistent key/value table backing the metadata cache.
type CacheEntry struct {
	Key       string         `gorm:"type:varchar(512);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CacheEntry) TableName() string {
	return "dashboard_metadata_cache"
}
