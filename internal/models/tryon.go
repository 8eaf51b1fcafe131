package models

import (
	"time"

	"gorm.io/gorm"
)

// TryOnRender is one cached virtual try-on image. CacheKey is a SHA-256
// over the user's render fingerprint plus the sorted item IDs, so the same
// selection of items for the same profile always maps to the same row.
// The (user_id, cache_key) pair is unique: regeneration updates the row
// in place instead of inserting a duplicate.
type TryOnRender struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_tryon_user_key" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	CacheKey string      `gorm:"not null;uniqueIndex:idx_tryon_user_key" json:"cache_key"`
	ItemIDs  StringArray `gorm:"type:text[]" json:"item_ids"`

	ImageURL string `gorm:"not null" json:"image_url"`
	ImageKey string `gorm:"not null" json:"-"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (TryOnRender) TableName() string {
	return "tryon_renders"
}
