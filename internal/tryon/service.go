package tryon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/metrics"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/storage"
	"github.com/stylevault/backend/internal/vision"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNoItems        = errors.New("at least one item is required")
	ErrItemsNotFound  = errors.New("one or more items not found in wardrobe")
	ErrRenderNotFound = errors.New("render not found")
)

// Renderer produces a composite try-on image from a profile and garment
// images. Satisfied by *vision.Client; kept narrow for testing.
type Renderer interface {
	GenerateTryOn(ctx context.Context, profile vision.TryOnProfile, itemImages [][]byte) ([]byte, error)
}

// Service implements the try-on render cache
type Service struct {
	uploader storage.ImageUploader
	renderer Renderer
}

// NewService creates a try-on service
func NewService(uploader storage.ImageUploader, renderer Renderer) *Service {
	return &Service{
		uploader: uploader,
		renderer: renderer,
	}
}

// Result is the outcome of a render request
type Result struct {
	Render *models.TryOnRender `json:"render"`
	Cached bool                `json:"cached"`
}

// Render returns a try-on image for the given items, serving from the
// cache when the same selection was already rendered for the current
// profile. force bypasses the cache and regenerates in place.
func (s *Service) Render(ctx context.Context, user *models.User, itemIDs []string, force bool) (*Result, error) {
	if len(itemIDs) == 0 {
		return nil, ErrNoItems
	}

	// {a,a,b} is the same selection as {a,b}: one key, one row
	itemIDs = uniqueStrings(itemIDs)

	// Items must belong to the caller
	var items []models.ClothingItem
	err := database.DB.Where("user_id = ? AND id IN ?", user.ID, itemIDs).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("database error loading items: %w", err)
	}
	if len(items) != len(itemIDs) {
		return nil, ErrItemsNotFound
	}

	m := metrics.Get()
	key := CacheKey(user.RenderFingerprint(), itemIDs)

	var existing models.TryOnRender
	found := true
	err = database.DB.Where("user_id = ? AND cache_key = ?", user.ID, key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		found = false
	} else if err != nil {
		return nil, fmt.Errorf("database error loading render: %w", err)
	}

	if found && !force {
		m.TryOnCacheHitsTotal.Inc()
		logger.Log.Debug("Try-on cache hit",
			zap.String("user_id", user.ID),
			zap.String("cache_key", key))
		return &Result{Render: &existing, Cached: true}, nil
	}

	if found && force {
		m.TryOnForcedTotal.Inc()
	} else {
		m.TryOnCacheMissesTotal.Inc()
	}

	start := time.Now()

	// Pull the isolated garment images back down for compositing
	itemImages := make([][]byte, 0, len(items))
	for _, item := range items {
		data, err := s.uploader.DownloadFile(ctx, item.ImageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch garment image %s: %w", item.ID, err)
		}
		itemImages = append(itemImages, data)
	}

	profile := vision.TryOnProfile{
		Gender:   user.Gender,
		HeightCM: user.HeightCM,
		WeightKG: user.WeightKG,
		BodyType: user.BodyType,
	}

	imageData, err := s.renderer.GenerateTryOn(ctx, profile, itemImages)
	if err != nil {
		return nil, fmt.Errorf("try-on generation failed: %w", err)
	}

	// The S3 key is derived from the cache key, so a regenerate
	// overwrites the old object instead of leaking it
	upload, err := s.uploader.UploadTryOnRender(ctx, imageData, user.ID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to upload render: %w", err)
	}

	m.TryOnRenderDuration.Observe(time.Since(start).Seconds())

	render, err := s.upsertRender(user.ID, key, itemIDs, upload)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Try-on render generated",
		zap.String("user_id", user.ID),
		zap.String("cache_key", key),
		zap.Int("items", len(items)),
		zap.Bool("forced", found && force),
		zap.Duration("duration", time.Since(start)))

	return &Result{Render: render, Cached: false}, nil
}

// upsertRender writes the render row, replacing any existing row with
// the same (user_id, cache_key). One row per key, never duplicates.
func (s *Service) upsertRender(userID, key string, itemIDs []string, upload *storage.UploadResult) (*models.TryOnRender, error) {
	var render models.TryOnRender
	err := database.DB.Where("user_id = ? AND cache_key = ?", userID, key).First(&render).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		render = models.TryOnRender{
			UserID:   userID,
			CacheKey: key,
			ItemIDs:  itemIDs,
			ImageURL: upload.URL,
			ImageKey: upload.Key,
		}
		if err := database.DB.Create(&render).Error; err != nil {
			return nil, fmt.Errorf("failed to save render: %w", err)
		}
		return &render, nil
	} else if err != nil {
		return nil, fmt.Errorf("database error upserting render: %w", err)
	}

	render.ItemIDs = itemIDs
	render.ImageURL = upload.URL
	render.ImageKey = upload.Key
	if err := database.DB.Save(&render).Error; err != nil {
		return nil, fmt.Errorf("failed to update render: %w", err)
	}
	return &render, nil
}

// List returns the user's cached renders, most recently updated first
func (s *Service) List(userID string, limit int) ([]models.TryOnRender, error) {
	var renders []models.TryOnRender
	err := database.DB.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&renders).Error
	if err != nil {
		return nil, fmt.Errorf("database error listing renders: %w", err)
	}
	return renders, nil
}

// Delete removes a render row and its S3 object. The S3 delete is
// best-effort: a failed object delete does not resurrect the row.
func (s *Service) Delete(ctx context.Context, userID, renderID string) error {
	var render models.TryOnRender
	err := database.DB.Where("user_id = ? AND id = ?", userID, renderID).First(&render).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRenderNotFound
	} else if err != nil {
		return fmt.Errorf("database error loading render: %w", err)
	}

	if err := database.DB.Delete(&render).Error; err != nil {
		return fmt.Errorf("failed to delete render: %w", err)
	}

	if err := s.uploader.DeleteFile(ctx, render.ImageKey); err != nil {
		logger.Log.Warn("Failed to delete render object from S3",
			zap.String("key", render.ImageKey),
			zap.Error(err))
	}

	return nil
}

func uniqueStrings(in []string) []string {
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
