package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/tryon"
	"github.com/stylevault/backend/internal/util"
)

// CreateTryOn renders the selected items on the user's profile, serving
// from the cache when the same selection was rendered before
// POST /api/v1/tryon
func (h *Handlers) CreateTryOn(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ItemIDs []string `json:"item_ids" binding:"required,min=1,max=8"`
		Force   bool     `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.tryonSvc.Render(c.Request.Context(), user, req.ItemIDs, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, tryon.ErrNoItems):
			util.RespondBadRequest(c, "at least one item is required")
		case errors.Is(err, tryon.ErrItemsNotFound):
			util.RespondNotFound(c, "item")
		default:
			logger.ErrorWithFields("Try-on render failed", err, logger.WithUserID(user.ID))
			util.RespondUpstreamFailed(c, "vision")
		}
		return
	}

	status := http.StatusOK
	if !result.Cached {
		status = http.StatusCreated
	}

	c.JSON(status, gin.H{
		"render": result.Render,
		"cached": result.Cached,
	})
}

// ListTryOns returns the user's cached renders
// GET /api/v1/tryon
func (h *Handlers) ListTryOns(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 50), 200)

	renders, err := h.tryonSvc.List(user.ID, limit)
	if err != nil {
		logger.ErrorWithFields("Listing renders failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to list renders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"renders": renders,
		"count":   len(renders),
	})
}

// DeleteTryOn removes a cached render and its stored image
// DELETE /api/v1/tryon/:id
func (h *Handlers) DeleteTryOn(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	err := h.tryonSvc.Delete(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, tryon.ErrRenderNotFound) {
			util.RespondNotFound(c, "render")
			return
		}
		logger.ErrorWithFields("Render delete failed", err, logger.WithUserID(user.ID))
		util.RespondInternalError(c, "Failed to delete render")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
