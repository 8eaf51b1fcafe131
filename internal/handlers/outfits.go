package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/stylist"
	"github.com/stylevault/backend/internal/util"
	"gorm.io/gorm"
)

// SuggestOutfit assembles an outfit from the user's wardrobe for an
// occasion. Nothing is persisted; the client saves what it likes.
// POST /api/v1/outfits/suggest
func (h *Handlers) SuggestOutfit(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DressCode        string `json:"dress_code"`
		Season           string `json:"season"`
		IncludeOuterwear bool   `json:"include_outerwear"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var items []models.ClothingItem
	if err := database.DB.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		util.RespondInternalError(c, "Failed to load wardrobe")
		return
	}

	suggestion, err := stylist.Suggest(items, stylist.Request{
		DressCode:        req.DressCode,
		Season:           req.Season,
		IncludeOuterwear: req.IncludeOuterwear,
	}, time.Now())
	if err != nil {
		if errors.Is(err, stylist.ErrInsufficientWardrobe) {
			util.RespondValidationError(c, "wardrobe", "not enough suitable items to build an outfit")
			return
		}
		logger.ErrorWithFields("Suggestion failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to build suggestion")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

// CreateOutfit saves a combination of items as a named outfit
// POST /api/v1/outfits
func (h *Handlers) CreateOutfit(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name      string `json:"name" binding:"required,min=1,max=100"`
		Occasion  string `json:"occasion" binding:"max=100"`
		DressCode string `json:"dress_code"`
		Season    string `json:"season"`
		Notes     string `json:"notes" binding:"max=1000"`
		Members   []struct {
			ItemID string `json:"item_id" binding:"required"`
			Slot   string `json:"slot" binding:"required"`
		} `json:"members" binding:"required,min=1,max=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// Every member must be in the caller's wardrobe
	itemIDs := make([]string, 0, len(req.Members))
	for _, m := range req.Members {
		itemIDs = append(itemIDs, m.ItemID)
	}
	var count int64
	database.DB.Model(&models.ClothingItem{}).
		Where("user_id = ? AND id IN ?", user.ID, itemIDs).
		Count(&count)
	if count != int64(len(uniqueIDs(itemIDs))) {
		util.RespondNotFound(c, "item")
		return
	}

	outfit := models.Outfit{
		UserID:    user.ID,
		Name:      req.Name,
		Occasion:  req.Occasion,
		DressCode: req.DressCode,
		Season:    req.Season,
		Notes:     req.Notes,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&outfit).Error; err != nil {
			return err
		}
		for _, m := range req.Members {
			member := models.OutfitItem{
				OutfitID: outfit.ID,
				ItemID:   m.ItemID,
				Slot:     m.Slot,
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithFields("Outfit creation failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to save outfit")
		return
	}

	database.DB.Preload("Members.Item").First(&outfit, "id = ?", outfit.ID)
	c.JSON(http.StatusCreated, gin.H{"outfit": outfit})
}

// ListOutfits returns the user's saved outfits
// GET /api/v1/outfits
func (h *Handlers) ListOutfits(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 50), 200)
	offset := util.ParseInt(c.Query("offset"), 0)

	var outfits []models.Outfit
	err := database.DB.Where("user_id = ?", user.ID).
		Preload("Members.Item").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&outfits).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch outfits")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outfits": outfits,
		"count":   len(outfits),
	})
}

// GetOutfit returns one outfit with its members
// GET /api/v1/outfits/:id
func (h *Handlers) GetOutfit(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	outfit, ok := h.loadOwnedOutfit(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"outfit": outfit})
}

// DeleteOutfit removes an outfit and its member links. The items stay.
// DELETE /api/v1/outfits/:id
func (h *Handlers) DeleteOutfit(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	outfit, ok := h.loadOwnedOutfit(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("outfit_id = ?", outfit.ID).Delete(&models.OutfitItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(outfit).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to delete outfit")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// MarkOutfitWorn records a wear: bumps the outfit and every member item
// POST /api/v1/outfits/:id/worn
func (h *Handlers) MarkOutfitWorn(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	outfit, ok := h.loadOwnedOutfit(c, user.ID, c.Param("id"))
	if !ok {
		return
	}

	now := time.Now()
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(outfit).Updates(map[string]interface{}{
			"worn_count":   gorm.Expr("worn_count + 1"),
			"last_worn_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.ClothingItem{}).
			Where("id IN ?", outfit.ItemIDs()).
			Updates(map[string]interface{}{
				"wear_count":   gorm.Expr("wear_count + 1"),
				"last_worn_at": now,
			}).Error
	})
	if err != nil {
		logger.ErrorWithFields("Mark worn failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to record wear")
		return
	}

	database.DB.Preload("Members.Item").First(outfit, "id = ?", outfit.ID)
	c.JSON(http.StatusOK, gin.H{"outfit": outfit})
}

// loadOwnedOutfit fetches an outfit with members and enforces ownership
func (h *Handlers) loadOwnedOutfit(c *gin.Context, userID, outfitID string) (*models.Outfit, bool) {
	var outfit models.Outfit
	err := database.DB.Where("id = ? AND user_id = ?", outfitID, userID).
		Preload("Members.Item").
		First(&outfit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "outfit")
		return nil, false
	} else if err != nil {
		util.RespondInternalError(c, "Failed to load outfit")
		return nil, false
	}
	return &outfit, true
}

func uniqueIDs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
