package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stylevault/backend/internal/auth"
	"github.com/stylevault/backend/internal/cache"
	"github.com/stylevault/backend/internal/config"
	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/handlers"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/metrics"
	"github.com/stylevault/backend/internal/middleware"
	"github.com/stylevault/backend/internal/search"
	"github.com/stylevault/backend/internal/storage"
	"github.com/stylevault/backend/internal/telemetry"
	"github.com/stylevault/backend/internal/tryon"
	"github.com/stylevault/backend/internal/vision"
	"github.com/stylevault/backend/internal/wardrobe"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== StyleVault server starting ===",
		zap.String("environment", cfg.Environment))

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Log.Info("✅ Database ready")

	// Initialize metrics registry
	metrics.Initialize()

	// Tracing is optional, enabled by OTEL_EXPORTER_OTLP_ENDPOINT
	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "stylevault-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.OTLPEndpoint != "",
		SamplingRate: 1.0,
	})
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
	}
	if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx, tracerProvider); err != nil {
				logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()
		logger.Log.Info("✅ Tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))
	}

	// Initialize auth service
	authService := auth.NewService(cfg.JWTSecret, cfg.GoogleClientID, cfg.GoogleClientSecret)

	// Initialize S3 uploader
	s3Uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize S3 uploader", zap.Error(err))
	}
	if err := s3Uploader.CheckBucketAccess(context.Background()); err != nil {
		logger.Log.Warn("S3 bucket access failed, image uploads will fail", zap.Error(err))
	} else {
		logger.Log.Info("✅ S3 bucket reachable", zap.String("bucket", cfg.AWSBucket))
	}

	// Initialize the Gemini vision client
	visionClient, err := vision.NewClient(context.Background(),
		cfg.GeminiAPIKey, cfg.GeminiVisionModel, cfg.GeminiImageModel)
	if err != nil {
		logger.Log.Fatal("Failed to initialize vision client", zap.Error(err))
	}
	logger.Log.Info("✅ Vision client ready",
		zap.String("vision_model", cfg.GeminiVisionModel),
		zap.String("image_model", cfg.GeminiImageModel))

	// Elasticsearch is optional: wardrobe search falls back to Postgres
	var searchClient *search.Client
	if cfg.ElasticsearchURL != "" {
		searchClient, err = search.NewClient()
		if err != nil {
			logger.Log.Warn("Elasticsearch not available, using database search", zap.Error(err))
			searchClient = nil
		} else if err := searchClient.InitializeIndices(context.Background()); err != nil {
			logger.Log.Warn("Failed to initialize search indices", zap.Error(err))
		} else {
			logger.Log.Info("✅ Elasticsearch ready")
		}
	}

	// Redis is optional: list caching is skipped without it
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("Redis not available, response caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		logger.Log.Info("✅ Redis connected")
		defer redisClient.Close()
	}

	// Wire up the domain services
	pipeline := wardrobe.NewPipeline(visionClient, s3Uploader, searchClient, cfg.MaxConcurrentRenders)
	tryonService := tryon.NewService(s3Uploader, visionClient)

	h := handlers.NewHandlers(authService, s3Uploader, pipeline, tryonService)
	h.SetSearchClient(searchClient)
	h.SetRedisClient(redisClient)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("stylevault-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "stylevault-backend",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit())
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RateLimitAuth())
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/login/2fa", h.VerifyLogin2FA)

			authGroup.GET("/google", h.GoogleLogin)
			authGroup.GET("/google/callback", h.GoogleCallback)

			// 2FA management (protected)
			authGroup.POST("/2fa/enable", h.AuthMiddleware(), h.Enable2FA)
			authGroup.POST("/2fa/confirm", h.AuthMiddleware(), h.Confirm2FA)
			authGroup.POST("/2fa/disable", h.AuthMiddleware(), h.Disable2FA)
		}

		// User profile routes
		users := api.Group("/users")
		{
			users.Use(h.AuthMiddleware())
			users.GET("/me", h.GetMyProfile)
			users.PUT("/me", h.UpdateMyProfile)
			users.POST("/me/avatar", middleware.RateLimitUpload(), h.UploadAvatar)
		}

		// Wardrobe routes
		wardrobeGroup := api.Group("/wardrobe")
		{
			wardrobeGroup.Use(h.AuthMiddleware())
			wardrobeGroup.POST("/detect", middleware.RateLimitUpload(), h.DetectGarments)
			wardrobeGroup.POST("/items", middleware.RateLimitUpload(), h.CreateItems)
			wardrobeGroup.GET("/items", h.ListItems)
			wardrobeGroup.GET("/items/:id", h.GetItem)
			wardrobeGroup.PUT("/items/:id", h.UpdateItem)
			wardrobeGroup.DELETE("/items/:id", h.DeleteItem)
			wardrobeGroup.POST("/items/:id/favorite", h.ToggleFavorite)
			wardrobeGroup.POST("/items/:id/worn", h.MarkItemWorn)
			wardrobeGroup.GET("/search", h.SearchItems)
			wardrobeGroup.GET("/stats", h.GetWardrobeStats)
		}

		// Virtual try-on routes
		tryonGroup := api.Group("/tryon")
		{
			tryonGroup.Use(h.AuthMiddleware())
			tryonGroup.POST("", middleware.RateLimitTryOn(), h.CreateTryOn)
			tryonGroup.GET("", h.ListTryOns)
			tryonGroup.DELETE("/:id", h.DeleteTryOn)
		}

		// Outfit routes
		outfits := api.Group("/outfits")
		{
			outfits.Use(h.AuthMiddleware())
			outfits.POST("/suggest", h.SuggestOutfit)
			outfits.POST("", h.CreateOutfit)
			outfits.GET("", h.ListOutfits)
			outfits.GET("/:id", h.GetOutfit)
			outfits.DELETE("/:id", h.DeleteOutfit)
			outfits.POST("/:id/worn", h.MarkOutfitWorn)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("👗 StyleVault backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
