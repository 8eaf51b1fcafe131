// Package backend provides the StyleVault API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/vision: Gemini-backed garment detection and image generation
// - internal/wardrobe: Photo-to-wardrobe upload pipeline
// - internal/tryon: Virtual try-on rendering and render cache
// - internal/stylist: Outfit suggestion scoring engine
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, etc.)
// - internal/search: Search functionality
// - internal/cache: Redis caching

// See the individual package documentation for detailed API reference.
package backend
