package models

import (
	"database/sql/driver"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Split by comma (simple case - doesn't handle quoted values with commas)
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// BodyType values accepted on the user profile
const (
	BodyTypeSlim     = "slim"
	BodyTypeAverage  = "average"
	BodyTypeAthletic = "athletic"
	BodyTypeCurvy    = "curvy"
	BodyTypePlus     = "plus"
)

// User represents a StyleVault account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	// OAuth provider IDs (nullable - users can have native accounts)
	GoogleID *string `gorm:"uniqueIndex" json:"-"`

	// Two-factor auth (TOTP)
	TwoFactorSecret  *string `gorm:"type:text" json:"-"`
	TwoFactorEnabled bool    `gorm:"default:false" json:"two_factor_enabled"`

	// Styling profile. These fields are part of the try-on render
	// fingerprint: changing any of them invalidates cached renders.
	Gender    string  `gorm:"type:text" json:"gender"`
	HeightCM  int     `gorm:"default:0" json:"height_cm"`
	WeightKG  int     `gorm:"default:0" json:"weight_kg"`
	BodyType  string  `gorm:"type:text" json:"body_type"`
	AvatarURL string  `json:"avatar_url"`
	StyleTags StringArray `gorm:"type:text[]" json:"style_tags"`

	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (User) TableName() string {
	return "users"
}

// RenderFingerprint returns the profile fields that affect try-on
// rendering, in a fixed order. Used to build render cache keys.
func (u *User) RenderFingerprint() []string {
	return []string{
		u.Gender,
		strconv.Itoa(u.HeightCM),
		strconv.Itoa(u.WeightKG),
		u.BodyType,
		u.AvatarURL,
	}
}
