package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/stylevault/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection.
// DATABASE_URL wins; otherwise individual DB_* components are used.
// Setting DB_DRIVER=sqlite opens a local file database instead, which is
// handy for development without Postgres.
func Initialize() error {
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error

	if os.Getenv("DB_DRIVER") == "sqlite" {
		path := getEnvOrDefault("DB_PATH", "stylevault.db")
		db, err = gorm.Open(sqlite.Open(path), gormConfig)
	} else {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			host := getEnvOrDefault("DB_HOST", "localhost")
			port := getEnvOrDefault("DB_PORT", "5432")
			user := getEnvOrDefault("DB_USER", "postgres")
			password := getEnvOrDefault("DB_PASSWORD", "")
			dbname := getEnvOrDefault("DB_NAME", "stylevault")
			sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

			databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				host, port, user, password, dbname, sslmode)
		}
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	if DB.Dialector.Name() == "postgres" {
		err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
		if err != nil {
			log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
		}
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.ClothingItem{},
		&models.Outfit{},
		&models.OutfitItem{},
		&models.TryOnRender{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if DB.Dialector.Name() == "postgres" {
		if err := createIndexes(); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// User indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Wardrobe listing and filtering
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_items_user_created ON clothing_items (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_items_user_category ON clothing_items (user_id, category)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_items_user_favorite ON clothing_items (user_id) WHERE is_favorite = true")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_items_seasons ON clothing_items USING GIN (seasons)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_items_dress_codes ON clothing_items USING GIN (dress_codes)")

	// Full-text search fallback over item names and descriptions
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_items_text_search ON clothing_items USING gin(to_tsvector('english', name || ' ' || coalesce(description, ''))) WHERE deleted_at IS NULL")

	// Outfit lookups
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_outfits_user_created ON outfits (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_outfit_items_outfit ON outfit_items (outfit_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_outfit_items_item ON outfit_items (item_id)")

	// Render cache lookups by key
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_tryon_user_updated ON tryon_renders (user_id, updated_at DESC)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
