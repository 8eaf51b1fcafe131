package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/search"
	"github.com/stylevault/backend/internal/util"
	"github.com/stylevault/backend/internal/vision"
	"github.com/stylevault/backend/internal/wardrobe"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const wardrobeListCacheTTL = 60 * time.Second

// DetectGarments runs detection over an uploaded photo and returns the
// garments found without creating anything
// POST /api/v1/wardrobe/detect
func (h *Handlers) DetectGarments(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	data, mimeType, ok := h.readPhoto(c, "photo")
	if !ok {
		return
	}

	garments, err := h.pipeline.Detect(c.Request.Context(), user.ID, data, mimeType)
	if err != nil {
		logger.ErrorWithFields("Detection failed", err, logger.WithUserID(user.ID))
		util.RespondUpstreamFailed(c, "vision")
		return
	}

	// Zero garments is an empty list, not an error
	c.JSON(http.StatusOK, gin.H{
		"garments": garments,
		"count":    len(garments),
	})
}

// CreateItems runs the full pipeline for the garments the user selected
// out of a detection result. Succeeds partially: 201 when at least one
// item was created, 502 when every garment failed.
// POST /api/v1/wardrobe/items
func (h *Handlers) CreateItems(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	data, mimeType, ok := h.readPhoto(c, "photo")
	if !ok {
		return
	}

	garmentsJSON := c.PostForm("garments")
	if garmentsJSON == "" {
		util.RespondBadRequest(c, "garments selection is required")
		return
	}

	var garments []vision.DetectedGarment
	if err := json.Unmarshal([]byte(garmentsJSON), &garments); err != nil {
		util.RespondBadRequest(c, "invalid garments payload")
		return
	}
	for _, g := range garments {
		if !models.IsValidCategory(g.Category) {
			util.RespondValidationError(c, "category", fmt.Sprintf("unknown category %q", g.Category))
			return
		}
	}

	result, err := h.pipeline.CreateItems(c.Request.Context(), user, data, mimeType, photoFilename(c), garments)
	if err != nil {
		if errors.Is(err, wardrobe.ErrNoGarmentsSelected) {
			util.RespondBadRequest(c, "no garments selected")
			return
		}
		logger.ErrorWithFields("Item creation failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to create items")
		return
	}

	h.invalidateWardrobeCache(c.Request.Context(), user.ID)

	status := http.StatusCreated
	if len(result.Created) == 0 {
		// Every garment failed upstream
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"created": result.Created,
		"failed":  result.Failed,
	})
}

// ListItems returns the user's wardrobe with optional filters
// GET /api/v1/wardrobe/items
func (h *Handlers) ListItems(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	category := c.Query("category")
	season := c.Query("season")
	dressCode := c.Query("dress_code")
	favoritesOnly := util.ParseBool(c.Query("favorites"), false)
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 50), 200)
	offset := util.ParseInt(c.Query("offset"), 0)

	cacheKey := fmt.Sprintf("wardrobe:list:%s:%s:%s:%s:%t:%d:%d",
		user.ID, category, season, dressCode, favoritesOnly, limit, offset)
	if h.redis != nil {
		if cached, err := h.redis.Get(c.Request.Context(), cacheKey); err == nil && cached != "" {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
	}

	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", user.ID)
		if category != "" {
			db = db.Where("category = ?", category)
		}
		if season != "" {
			// All-season items (empty tags) always qualify
			db = db.Where("? = ANY(seasons) OR 'all' = ANY(seasons) OR seasons = '{}' OR seasons IS NULL", season)
		}
		if dressCode != "" {
			db = db.Where("? = ANY(dress_codes)", dressCode)
		}
		if favoritesOnly {
			db = db.Where("is_favorite = ?", true)
		}
		return db
	}

	var total int64
	if err := filtered(database.DB.Model(&models.ClothingItem{})).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "Failed to count items")
		return
	}

	var items []models.ClothingItem
	if err := filtered(database.DB).Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		util.RespondInternalError(c, "Failed to fetch items")
		return
	}

	body := gin.H{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}

	if h.redis != nil {
		if encoded, err := json.Marshal(body); err == nil {
			if err := h.redis.SetEx(c.Request.Context(), cacheKey, string(encoded), wardrobeListCacheTTL); err != nil {
				logger.Debug("Failed to cache wardrobe list", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, body)
}

// GetItem returns one wardrobe item
// GET /api/v1/wardrobe/items/:id
func (h *Handlers) GetItem(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	item, ok := h.loadOwnedItem(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// UpdateItem edits item metadata
// PUT /api/v1/wardrobe/items/:id
func (h *Handlers) UpdateItem(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	item, ok := h.loadOwnedItem(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	var req struct {
		Name        *string  `json:"name" binding:"omitempty,min=1,max=100"`
		Description *string  `json:"description" binding:"omitempty,max=1000"`
		Brand       *string  `json:"brand"`
		Material    *string  `json:"material"`
		Pattern     *string  `json:"pattern"`
		Subcategory *string  `json:"subcategory"`
		Colors      []string `json:"colors"`
		Seasons     []string `json:"seasons"`
		DressCodes  []string `json:"dress_codes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Brand != nil {
		updates["brand"] = *req.Brand
	}
	if req.Material != nil {
		updates["material"] = *req.Material
	}
	if req.Pattern != nil {
		updates["pattern"] = *req.Pattern
	}
	if req.Subcategory != nil {
		updates["subcategory"] = *req.Subcategory
	}
	if req.Colors != nil {
		updates["colors"] = models.StringArray(req.Colors)
	}
	if req.Seasons != nil {
		updates["seasons"] = models.StringArray(req.Seasons)
	}
	if req.DressCodes != nil {
		updates["dress_codes"] = models.StringArray(req.DressCodes)
	}

	if len(updates) > 0 {
		if err := database.DB.Model(item).Updates(updates).Error; err != nil {
			util.RespondInternalError(c, "Failed to update item")
			return
		}
		database.DB.First(item, "id = ?", item.ID)
		h.reindexItem(c.Request.Context(), item)
		h.invalidateWardrobeCache(c.Request.Context(), user.ID)
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem removes an item, its S3 object, and its search document
// DELETE /api/v1/wardrobe/items/:id
func (h *Handlers) DeleteItem(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	item, ok := h.loadOwnedItem(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	if err := database.DB.Delete(item).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete item")
		return
	}

	// Object and index cleanup is best-effort
	if err := h.uploader.DeleteFile(c.Request.Context(), item.ImageKey); err != nil {
		logger.Warn("Failed to delete item image from S3",
			zap.String("key", item.ImageKey),
			zap.Error(err))
	}
	if h.search != nil {
		if err := h.search.DeleteItem(c.Request.Context(), item.ID); err != nil {
			logger.Warn("Failed to delete item from search index",
				logger.WithItemID(item.ID),
				zap.Error(err))
		}
	}
	h.invalidateWardrobeCache(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleFavorite flips the favorite flag
// POST /api/v1/wardrobe/items/:id/favorite
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	item, ok := h.loadOwnedItem(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	item.IsFavorite = !item.IsFavorite
	if err := database.DB.Model(item).Update("is_favorite", item.IsFavorite).Error; err != nil {
		util.RespondInternalError(c, "Failed to update item")
		return
	}
	h.invalidateWardrobeCache(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// MarkItemWorn bumps wear tracking for an item
// POST /api/v1/wardrobe/items/:id/worn
func (h *Handlers) MarkItemWorn(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	item, ok := h.loadOwnedItem(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"wear_count":   gorm.Expr("wear_count + 1"),
		"last_worn_at": now,
	}
	if err := database.DB.Model(item).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update item")
		return
	}

	database.DB.First(item, "id = ?", item.ID)
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// SearchItems searches the wardrobe by text. Uses Elasticsearch when
// configured, otherwise falls back to a Postgres ILIKE scan.
// GET /api/v1/wardrobe/search
func (h *Handlers) SearchItems(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		util.RespondBadRequest(c, "query parameter q is required")
		return
	}
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 100)
	offset := util.ParseInt(c.Query("offset"), 0)

	if h.search != nil {
		hits, total, err := h.search.SearchItems(c.Request.Context(), user.ID, query, limit, offset)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"results": hits,
				"total":   total,
				"source":  "elasticsearch",
			})
			return
		}
		logger.Warn("Search index query failed, falling back to database",
			zap.Error(err))
	}

	var items []models.ClothingItem
	pattern := "%" + query + "%"
	err := database.DB.
		Where("user_id = ? AND (name ILIKE ? OR description ILIKE ? OR brand ILIKE ? OR subcategory ILIKE ?)",
			user.ID, pattern, pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	if err != nil {
		util.RespondInternalError(c, "Search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": items,
		"total":   len(items),
		"source":  "database",
	})
}

// GetWardrobeStats summarizes the wardrobe
// GET /api/v1/wardrobe/stats
func (h *Handlers) GetWardrobeStats(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	type categoryCount struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}

	var byCategory []categoryCount
	err := database.DB.Model(&models.ClothingItem{}).
		Select("category, COUNT(*) as count").
		Where("user_id = ?", user.ID).
		Group("category").
		Scan(&byCategory).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to compute stats")
		return
	}

	var total, favorites, neverWorn int64
	database.DB.Model(&models.ClothingItem{}).Where("user_id = ?", user.ID).Count(&total)
	database.DB.Model(&models.ClothingItem{}).Where("user_id = ? AND is_favorite", user.ID).Count(&favorites)
	database.DB.Model(&models.ClothingItem{}).Where("user_id = ? AND wear_count = 0", user.ID).Count(&neverWorn)

	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"by_category": byCategory,
		"favorites":   favorites,
		"never_worn":  neverWorn,
	})
}

// readPhoto pulls and validates an uploaded image from the multipart form
func (h *Handlers) readPhoto(c *gin.Context, field string) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		util.RespondBadRequest(c, field+" file is required")
		return nil, "", false
	}
	defer file.Close()

	if header.Size > util.MaxPhotoSize {
		util.RespondBadRequest(c, "file too large")
		return nil, "", false
	}
	if !util.IsValidImageFile(header.Filename) {
		util.RespondValidationError(c, field, "unsupported image format")
		return nil, "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, util.MaxPhotoSize+1))
	if err != nil {
		util.RespondBadRequest(c, "failed to read upload")
		return nil, "", false
	}
	if int64(len(data)) > util.MaxPhotoSize {
		util.RespondBadRequest(c, "file too large")
		return nil, "", false
	}

	return data, util.ImageMIMEType(header.Filename), true
}

func photoFilename(c *gin.Context) string {
	if _, header, err := c.Request.FormFile("photo"); err == nil {
		return header.Filename
	}
	return "photo.jpg"
}

// loadOwnedItem fetches an item and enforces ownership
func (h *Handlers) loadOwnedItem(c *gin.Context, userID, itemID string) (*models.ClothingItem, bool) {
	var item models.ClothingItem
	err := database.DB.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "item")
		return nil, false
	} else if err != nil {
		util.RespondInternalError(c, "Failed to load item")
		return nil, false
	}
	return &item, true
}

// reindexItem refreshes the item's search document
func (h *Handlers) reindexItem(ctx context.Context, item *models.ClothingItem) {
	if h.search == nil {
		return
	}
	doc := search.ItemDocument(
		item.ID, item.UserID, string(item.Category), item.Subcategory,
		item.Name, item.Description, item.Brand, item.Colors, item.CreatedAt,
	)
	if err := h.search.IndexItem(ctx, item.ID, doc); err != nil {
		logger.Warn("Failed to reindex item",
			logger.WithItemID(item.ID),
			zap.Error(err))
	}
}

// invalidateWardrobeCache drops cached list responses after a mutation
func (h *Handlers) invalidateWardrobeCache(ctx context.Context, userID string) {
	if h.redis == nil {
		return
	}
	if err := h.redis.DelPattern(ctx, "wardrobe:list:"+userID+":*"); err != nil {
		logger.Debug("Failed to invalidate wardrobe cache", zap.Error(err))
	}
}
