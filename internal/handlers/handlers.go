package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stylevault/backend/internal/auth"
	"github.com/stylevault/backend/internal/cache"
	"github.com/stylevault/backend/internal/search"
	"github.com/stylevault/backend/internal/storage"
	"github.com/stylevault/backend/internal/tryon"
	"github.com/stylevault/backend/internal/wardrobe"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	authService auth.AuthServiceInterface
	uploader    storage.ImageUploader
	pipeline    *wardrobe.Pipeline
	tryonSvc    *tryon.Service
	search      *search.Client     // nil when Elasticsearch is not configured
	redis       *cache.RedisClient // nil when Redis is not configured
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService auth.AuthServiceInterface, uploader storage.ImageUploader, pipeline *wardrobe.Pipeline, tryonSvc *tryon.Service) *Handlers {
	return &Handlers{
		authService: authService,
		uploader:    uploader,
		pipeline:    pipeline,
		tryonSvc:    tryonSvc,
	}
}

// SetSearchClient sets the Elasticsearch search client
func (h *Handlers) SetSearchClient(searchClient *search.Client) {
	h.search = searchClient
}

// SetRedisClient sets the Redis client used for response caching
func (h *Handlers) SetRedisClient(redis *cache.RedisClient) {
	h.redis = redis
}

// AuthMiddleware validates the Bearer token and loads the user into the
// request context
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			c.Abort()
			return
		}

		tokenString := header
		if strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		}

		user, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
