package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds runtime configuration loaded from the environment
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	LogFile     string

	JWTSecret []byte

	// AWS / image storage
	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	// Gemini
	GeminiAPIKey         string
	GeminiVisionModel    string
	GeminiImageModel     string
	MaxConcurrentRenders int

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Search
	ElasticsearchURL string

	// Google sign-in
	GoogleClientID     string
	GoogleClientSecret string

	// Tracing
	OTLPEndpoint string
}

// Load reads configuration from environment variables.
// JWT_SECRET and GEMINI_API_KEY are required; everything else has defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8484"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "stylevault.log"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		AWSRegion:  getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiVisionModel:    getEnvOrDefault("GEMINI_VISION_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:     getEnvOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		MaxConcurrentRenders: getEnvIntOrDefault("MAX_CONCURRENT_RENDERS", 4),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
