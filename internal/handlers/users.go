package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/util"
	"go.uber.org/zap"
)

// GetMyProfile returns the authenticated user's profile
// GET /api/v1/users/me
func (h *Handlers) GetMyProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMyProfile updates profile fields. Changing any of the styling
// fields (gender, height, weight, body type) changes the try-on render
// fingerprint, so previously cached renders stop matching.
// PUT /api/v1/users/me
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName *string  `json:"display_name" binding:"omitempty,min=1,max=50"`
		Gender      *string  `json:"gender"`
		HeightCM    *int     `json:"height_cm" binding:"omitempty,min=0,max=300"`
		WeightKG    *int     `json:"weight_kg" binding:"omitempty,min=0,max=500"`
		BodyType    *string  `json:"body_type"`
		StyleTags   []string `json:"style_tags"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.BodyType != nil && *req.BodyType != "" && !isValidBodyType(*req.BodyType) {
		util.RespondValidationError(c, "body_type", "unknown body type")
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.HeightCM != nil {
		updates["height_cm"] = *req.HeightCM
	}
	if req.WeightKG != nil {
		updates["weight_kg"] = *req.WeightKG
	}
	if req.BodyType != nil {
		updates["body_type"] = *req.BodyType
	}
	if req.StyleTags != nil {
		updates["style_tags"] = models.StringArray(req.StyleTags)
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("Profile update failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	// Return the fresh row
	var updated models.User
	if err := database.DB.First(&updated, "id = ?", user.ID).Error; err != nil {
		util.RespondInternalError(c, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// UploadAvatar stores a new avatar image. The avatar URL is part of the
// render fingerprint, so this also invalidates cached try-on renders.
// POST /api/v1/users/me/avatar
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		util.RespondBadRequest(c, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > util.MaxPhotoSize {
		util.RespondBadRequest(c, "file too large")
		return
	}
	if !util.IsValidImageFile(header.Filename) {
		util.RespondValidationError(c, "avatar", "unsupported image format")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		util.RespondBadRequest(c, "failed to read upload")
		return
	}

	upload, err := h.uploader.UploadAvatar(c.Request.Context(), data, user.ID, header.Filename)
	if err != nil {
		logger.ErrorWithFields("Avatar upload failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to store avatar")
		return
	}

	if err := database.DB.Model(user).Update("avatar_url", upload.URL).Error; err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	logger.Info("Avatar updated",
		logger.WithUserID(user.ID),
		zap.String("key", upload.Key))

	c.JSON(http.StatusOK, gin.H{"avatar_url": upload.URL})
}

func isValidBodyType(s string) bool {
	switch s {
	case models.BodyTypeSlim, models.BodyTypeAverage, models.BodyTypeAthletic,
		models.BodyTypeCurvy, models.BodyTypePlus:
		return true
	}
	return false
}
