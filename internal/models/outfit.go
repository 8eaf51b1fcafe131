package models

import (
	"time"

	"gorm.io/gorm"
)

// Outfit is a saved combination of wardrobe items
type Outfit struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Name      string `gorm:"not null" json:"name"`
	Occasion  string `gorm:"type:text" json:"occasion"`
	DressCode string `gorm:"type:text" json:"dress_code"`
	Season    string `gorm:"type:text" json:"season"`
	Notes     string `gorm:"type:text" json:"notes"`

	Members []OutfitItem `gorm:"foreignKey:OutfitID" json:"members,omitempty"`

	WornCount  int        `gorm:"default:0" json:"worn_count"`
	LastWornAt *time.Time `json:"last_worn_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (Outfit) TableName() string {
	return "outfits"
}

// OutfitItem links one clothing item into an outfit under a named slot
type OutfitItem struct {
	ID       string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OutfitID string       `gorm:"not null;index" json:"outfit_id"`
	Outfit   Outfit       `gorm:"foreignKey:OutfitID" json:"-"`
	ItemID   string       `gorm:"not null;index" json:"item_id"`
	Item     ClothingItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Slot     string       `gorm:"not null" json:"slot"` // top, bottom, dress, outerwear, footwear, accessory

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (OutfitItem) TableName() string {
	return "outfit_items"
}

// ItemIDs returns the member item IDs in slot order
func (o *Outfit) ItemIDs() []string {
	ids := make([]string, 0, len(o.Members))
	for _, m := range o.Members {
		ids = append(ids, m.ItemID)
	}
	return ids
}
