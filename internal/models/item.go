package models

import (
	"time"

	"gorm.io/gorm"
)

// ItemCategory is the top-level garment category assigned by detection
type ItemCategory string

const (
	CategoryTop       ItemCategory = "top"
	CategoryBottom    ItemCategory = "bottom"
	CategoryDress     ItemCategory = "dress"
	CategoryOuterwear ItemCategory = "outerwear"
	CategoryFootwear  ItemCategory = "footwear"
	CategoryAccessory ItemCategory = "accessory"
)

// ValidCategories lists every category detection may return
var ValidCategories = []ItemCategory{
	CategoryTop, CategoryBottom, CategoryDress,
	CategoryOuterwear, CategoryFootwear, CategoryAccessory,
}

// IsValidCategory reports whether s is a known category
func IsValidCategory(s string) bool {
	for _, c := range ValidCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Dress code values used by items and outfit requests
const (
	DressCodeCasual   = "casual"
	DressCodeSmart    = "smart_casual"
	DressCodeBusiness = "business"
	DressCodeFormal   = "formal"
	DressCodeSport    = "sport"
)

// ClothingItem is one garment in a user's wardrobe. ImageURL points at the
// isolated (background-removed) render; SourceImageURL at the original photo.
type ClothingItem struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Category    ItemCategory `gorm:"not null;index" json:"category"`
	Subcategory string       `gorm:"type:text" json:"subcategory"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Brand       string       `gorm:"type:text" json:"brand"`
	Material    string       `gorm:"type:text" json:"material"`
	Pattern     string       `gorm:"type:text" json:"pattern"`

	Colors     StringArray `gorm:"type:text[]" json:"colors"`
	Seasons    StringArray `gorm:"type:text[]" json:"seasons"`
	DressCodes StringArray `gorm:"type:text[]" json:"dress_codes"`

	ImageURL       string `gorm:"not null" json:"image_url"`
	ImageKey       string `gorm:"not null" json:"-"`
	SourceImageURL string `json:"source_image_url"`

	IsFavorite bool       `gorm:"default:false" json:"is_favorite"`
	WearCount  int        `gorm:"default:0" json:"wear_count"`
	LastWornAt *time.Time `json:"last_worn_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (ClothingItem) TableName() string {
	return "clothing_items"
}

// MatchesSeason reports whether the item is wearable in the given season.
// Items with no season tags are treated as all-season.
func (i *ClothingItem) MatchesSeason(season string) bool {
	if season == "" || len(i.Seasons) == 0 {
		return true
	}
	for _, s := range i.Seasons {
		if s == season || s == "all" {
			return true
		}
	}
	return false
}

// MatchesDressCode reports whether the item fits the given dress code
func (i *ClothingItem) MatchesDressCode(code string) bool {
	if code == "" || len(i.DressCodes) == 0 {
		return false
	}
	for _, c := range i.DressCodes {
		if c == code {
			return true
		}
	}
	return false
}
