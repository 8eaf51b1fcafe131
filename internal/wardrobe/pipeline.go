package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/metrics"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/search"
	"github.com/stylevault/backend/internal/storage"
	"github.com/stylevault/backend/internal/vision"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoGarmentsSelected = errors.New("no garments selected")

// Pipeline stages reported in failure reasons and metrics
const (
	StageGenerate = "generate"
	StageUpload   = "upload"
	StagePersist  = "persist"
)

// GarmentDetector is the slice of the vision client the pipeline uses
type GarmentDetector interface {
	DetectGarments(ctx context.Context, imageData []byte, mimeType string) ([]vision.DetectedGarment, error)
	GenerateItemImage(ctx context.Context, sourceImage []byte, mimeType string, garment vision.DetectedGarment) ([]byte, error)
}

// Pipeline runs the photo-to-wardrobe flow: detect garments in a photo,
// then for each selected garment generate an isolated image, upload it,
// and persist the item. Generation is parallel with a concurrency cap.
type Pipeline struct {
	vision        GarmentDetector
	uploader      storage.ImageUploader
	searchClient  *search.Client // nil when Elasticsearch is not configured
	maxConcurrent int
}

// NewPipeline creates an upload pipeline
func NewPipeline(visionClient GarmentDetector, uploader storage.ImageUploader, searchClient *search.Client, maxConcurrent int) *Pipeline {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pipeline{
		vision:        visionClient,
		uploader:      uploader,
		searchClient:  searchClient,
		maxConcurrent: maxConcurrent,
	}
}

// Detect runs garment detection on a photo. Zero detections is a valid
// outcome, not an error.
func (p *Pipeline) Detect(ctx context.Context, userID string, imageData []byte, mimeType string) ([]vision.DetectedGarment, error) {
	m := metrics.Get()

	garments, err := p.vision.DetectGarments(ctx, imageData, mimeType)
	if err != nil {
		m.DetectionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("garment detection failed: %w", err)
	}

	m.DetectionsTotal.WithLabelValues("ok").Inc()
	m.GarmentsDetected.Observe(float64(len(garments)))

	logger.Log.Info("Garment detection completed",
		zap.String("user_id", userID),
		zap.Int("garments", len(garments)))

	return garments, nil
}

// GarmentFailure describes one garment that did not make it through
type GarmentFailure struct {
	Name   string `json:"name"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// CreateResult is the partial-failure outcome of item creation
type CreateResult struct {
	Created []models.ClothingItem `json:"created"`
	Failed  []GarmentFailure      `json:"failed"`
}

// CreateItems processes each selected garment independently so one bad
// garment never sinks the rest of the batch. The source photo is
// uploaded once and shared across the created items.
func (p *Pipeline) CreateItems(ctx context.Context, user *models.User, sourceImage []byte, mimeType, filename string, garments []vision.DetectedGarment) (*CreateResult, error) {
	if len(garments) == 0 {
		return nil, ErrNoGarmentsSelected
	}

	m := metrics.Get()

	sourceURL := ""
	if source, err := p.uploader.UploadSourcePhoto(ctx, sourceImage, user.ID, filename); err != nil {
		// Items can live without their source photo
		logger.Log.Warn("Failed to upload source photo",
			zap.String("user_id", user.ID),
			zap.Error(err))
	} else {
		sourceURL = source.URL
	}

	result := &CreateResult{
		Created: make([]models.ClothingItem, 0, len(garments)),
		Failed:  make([]GarmentFailure, 0),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for _, garment := range garments {
		garment := garment
		g.Go(func() error {
			item, failure := p.processGarment(gctx, user, sourceImage, mimeType, sourceURL, garment)

			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				m.PipelineFailures.WithLabelValues(failure.Stage).Inc()
				m.ItemsCreatedTotal.WithLabelValues("failed").Inc()
				result.Failed = append(result.Failed, *failure)
			} else {
				m.ItemsCreatedTotal.WithLabelValues("ok").Inc()
				result.Created = append(result.Created, *item)
			}
			// Failures are collected, not propagated, so the other
			// garments keep going
			return nil
		})
	}

	// Goroutines never return errors, but Wait also observes gctx
	_ = g.Wait()

	logger.Log.Info("Wardrobe item creation finished",
		zap.String("user_id", user.ID),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

// processGarment runs one garment through generate, upload, and persist
func (p *Pipeline) processGarment(ctx context.Context, user *models.User, sourceImage []byte, mimeType, sourceURL string, garment vision.DetectedGarment) (*models.ClothingItem, *GarmentFailure) {
	m := metrics.Get()

	start := time.Now()
	imageData, err := p.vision.GenerateItemImage(ctx, sourceImage, mimeType, garment)
	if err != nil {
		return nil, &GarmentFailure{Name: garment.Name, Stage: StageGenerate, Reason: err.Error()}
	}
	m.GenerationDuration.WithLabelValues("item").Observe(time.Since(start).Seconds())

	upload, err := p.uploader.UploadItemImage(ctx, imageData, user.ID, garment.Name+".png")
	if err != nil {
		return nil, &GarmentFailure{Name: garment.Name, Stage: StageUpload, Reason: err.Error()}
	}

	item := models.ClothingItem{
		UserID:         user.ID,
		Category:       models.ItemCategory(garment.Category),
		Subcategory:    garment.Subcategory,
		Name:           garment.Name,
		Description:    garment.Description,
		Brand:          garment.Brand,
		Material:       garment.Material,
		Pattern:        garment.Pattern,
		Colors:         models.StringArray(garment.Colors),
		Seasons:        models.StringArray(garment.Seasons),
		DressCodes:     models.StringArray(garment.DressCodes),
		ImageURL:       upload.URL,
		ImageKey:       upload.Key,
		SourceImageURL: sourceURL,
	}

	if err := database.DB.Create(&item).Error; err != nil {
		// Orphaned object cleanup is best-effort
		if delErr := p.uploader.DeleteFile(ctx, upload.Key); delErr != nil {
			logger.Log.Warn("Failed to clean up orphaned item image",
				zap.String("key", upload.Key),
				zap.Error(delErr))
		}
		return nil, &GarmentFailure{Name: garment.Name, Stage: StagePersist, Reason: err.Error()}
	}

	p.indexItem(ctx, &item)

	return &item, nil
}

// indexItem pushes the item into Elasticsearch when search is configured
func (p *Pipeline) indexItem(ctx context.Context, item *models.ClothingItem) {
	if p.searchClient == nil {
		return
	}
	doc := search.ItemDocument(
		item.ID, item.UserID, string(item.Category), item.Subcategory,
		item.Name, item.Description, item.Brand, item.Colors, item.CreatedAt,
	)
	if err := p.searchClient.IndexItem(ctx, item.ID, doc); err != nil {
		logger.Log.Warn("Failed to index item for search",
			zap.String("item_id", item.ID),
			zap.Error(err))
	}
}
