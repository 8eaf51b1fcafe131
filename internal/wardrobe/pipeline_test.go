package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/stylevault/backend/internal/database"
	applogger "github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/storage"
	"github.com/stylevault/backend/internal/vision"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = applogger.Initialize("error", "")
	os.Exit(m.Run())
}

// fakeVision returns canned detections and fails generation for
// garments whose name is in failNames
type fakeVision struct {
	detections []vision.DetectedGarment
	detectErr  error
	failNames  map[string]bool
	generated  int32
}

func (f *fakeVision) DetectGarments(ctx context.Context, imageData []byte, mimeType string) ([]vision.DetectedGarment, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return f.detections, nil
}

func (f *fakeVision) GenerateItemImage(ctx context.Context, sourceImage []byte, mimeType string, garment vision.DetectedGarment) ([]byte, error) {
	if f.failNames[garment.Name] {
		return nil, errors.New("model refused")
	}
	atomic.AddInt32(&f.generated, 1)
	return []byte("isolated-" + garment.Name), nil
}

// fakeUploader counts uploads; can fail item uploads on demand
type fakeUploader struct {
	failItemUploads bool
	itemUploads     int32
	sourceUploads   int32
	deletes         int32
}

func (f *fakeUploader) UploadItemImage(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	if f.failItemUploads {
		return nil, errors.New("bucket unavailable")
	}
	atomic.AddInt32(&f.itemUploads, 1)
	key := "items/" + uuid.New().String() + ".png"
	return &storage.UploadResult{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) UploadSourcePhoto(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	atomic.AddInt32(&f.sourceUploads, 1)
	key := "sources/" + uuid.New().String() + ".jpg"
	return &storage.UploadResult{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) UploadTryOnRender(ctx context.Context, data []byte, userID, cacheKey string) (*storage.UploadResult, error) {
	key := "tryon/" + userID + "/" + cacheKey + ".png"
	return &storage.UploadResult{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) UploadAvatar(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	key := "avatars/" + uuid.New().String() + ".png"
	return &storage.UploadResult{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	return []byte("bytes"), nil
}

func (f *fakeUploader) DeleteFile(ctx context.Context, key string) error {
	atomic.AddInt32(&f.deletes, 1)
	return nil
}

// PipelineTestSuite contains upload pipeline tests
type PipelineTestSuite struct {
	suite.Suite
	db   *gorm.DB
	user models.User
}

func (suite *PipelineTestSuite) SetupSuite() {
	host := getEnvOrDefault("POSTGRES_HOST", "localhost")
	port := getEnvOrDefault("POSTGRES_PORT", "5432")
	user := getEnvOrDefault("POSTGRES_USER", "postgres")
	password := getEnvOrDefault("POSTGRES_PASSWORD", "")
	dbname := getEnvOrDefault("POSTGRES_DB", "stylevault_test")

	testDSN := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		testDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping pipeline tests: database not available (%v)", err)
		return
	}

	database.DB = db
	suite.db = db

	err = db.AutoMigrate(&models.User{}, &models.ClothingItem{})
	require.NoError(suite.T(), err)
}

func (suite *PipelineTestSuite) TearDownSuite() {
	if suite.db == nil {
		return
	}
	suite.db.Exec("DROP TABLE IF EXISTS clothing_items, users CASCADE")
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func (suite *PipelineTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM clothing_items")
	suite.db.Exec("DELETE FROM users")

	suite.user = models.User{
		ID:          uuid.New().String(),
		Email:       "pipeline@test.com",
		Username:    "pipelinetest",
		DisplayName: "Pipeline Test",
	}
	require.NoError(suite.T(), suite.db.Create(&suite.user).Error)
}

func garment(name, category string) vision.DetectedGarment {
	return vision.DetectedGarment{
		Category:    category,
		Name:        name,
		Colors:      []string{"navy"},
		Seasons:     []string{"autumn", "winter"},
		DressCodes:  []string{models.DressCodeCasual},
		Material:    "cotton",
		Description: "a " + name,
	}
}

func (suite *PipelineTestSuite) TestDetect() {
	t := suite.T()

	fv := &fakeVision{detections: []vision.DetectedGarment{
		garment("blue shirt", "top"),
		garment("black jeans", "bottom"),
	}}
	p := NewPipeline(fv, &fakeUploader{}, nil, 2)

	garments, err := p.Detect(context.Background(), suite.user.ID, []byte("photo"), "image/jpeg")
	require.NoError(t, err)
	assert.Len(t, garments, 2)

	// Zero detections is a valid empty result
	fv.detections = nil
	garments, err = p.Detect(context.Background(), suite.user.ID, []byte("photo"), "image/jpeg")
	require.NoError(t, err)
	assert.Empty(t, garments)

	// Upstream failure surfaces as an error
	fv.detectErr = errors.New("quota exceeded")
	_, err = p.Detect(context.Background(), suite.user.ID, []byte("photo"), "image/jpeg")
	assert.Error(t, err)
}

func (suite *PipelineTestSuite) TestCreateItemsAllSucceed() {
	t := suite.T()

	fv := &fakeVision{}
	fu := &fakeUploader{}
	p := NewPipeline(fv, fu, nil, 3)

	garments := []vision.DetectedGarment{
		garment("blue shirt", "top"),
		garment("black jeans", "bottom"),
		garment("white sneakers", "footwear"),
	}

	result, err := p.CreateItems(context.Background(), &suite.user, []byte("photo"), "image/jpeg", "closet.jpg", garments)
	require.NoError(t, err)
	assert.Len(t, result.Created, 3)
	assert.Empty(t, result.Failed)
	assert.Equal(t, int32(1), fu.sourceUploads, "source photo uploaded once")
	assert.Equal(t, int32(3), fu.itemUploads)

	var count int64
	suite.db.Model(&models.ClothingItem{}).Where("user_id = ?", suite.user.ID).Count(&count)
	assert.Equal(t, int64(3), count)

	// Metadata made it into the rows
	var item models.ClothingItem
	require.NoError(t, suite.db.Where("name = ?", "blue shirt").First(&item).Error)
	assert.Equal(t, models.CategoryTop, item.Category)
	assert.Equal(t, "cotton", item.Material)
	assert.NotEmpty(t, item.ImageURL)
	assert.NotEmpty(t, item.SourceImageURL)
}

func (suite *PipelineTestSuite) TestCreateItemsPartialFailure() {
	t := suite.T()

	fv := &fakeVision{failNames: map[string]bool{"cursed coat": true}}
	fu := &fakeUploader{}
	p := NewPipeline(fv, fu, nil, 2)

	garments := []vision.DetectedGarment{
		garment("blue shirt", "top"),
		garment("cursed coat", "outerwear"),
		garment("black jeans", "bottom"),
	}

	result, err := p.CreateItems(context.Background(), &suite.user, []byte("photo"), "image/jpeg", "closet.jpg", garments)
	require.NoError(t, err)
	assert.Len(t, result.Created, 2, "successful garments survive a sibling failure")
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "cursed coat", result.Failed[0].Name)
	assert.Equal(t, StageGenerate, result.Failed[0].Stage)
	assert.Contains(t, result.Failed[0].Reason, "model refused")
}

func (suite *PipelineTestSuite) TestCreateItemsTotalFailure() {
	t := suite.T()

	fv := &fakeVision{}
	fu := &fakeUploader{failItemUploads: true}
	p := NewPipeline(fv, fu, nil, 2)

	garments := []vision.DetectedGarment{
		garment("blue shirt", "top"),
		garment("black jeans", "bottom"),
	}

	result, err := p.CreateItems(context.Background(), &suite.user, []byte("photo"), "image/jpeg", "closet.jpg", garments)
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Len(t, result.Failed, 2)
	for _, f := range result.Failed {
		assert.Equal(t, StageUpload, f.Stage)
	}

	var count int64
	suite.db.Model(&models.ClothingItem{}).Where("user_id = ?", suite.user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func (suite *PipelineTestSuite) TestCreateItemsEmptySelection() {
	t := suite.T()

	p := NewPipeline(&fakeVision{}, &fakeUploader{}, nil, 2)
	_, err := p.CreateItems(context.Background(), &suite.user, []byte("photo"), "image/jpeg", "closet.jpg", nil)
	assert.ErrorIs(t, err, ErrNoGarmentsSelected)
}

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

// Detect has no database dependency; this runs even when Postgres is
// unavailable and the suite above skips, so it catches service-level
// breakage (logging, metrics) that the suite would otherwise hide.
func TestDetectWithoutDatabase(t *testing.T) {
	p := NewPipeline(&fakeVision{detections: []vision.DetectedGarment{
		{Category: "top", Name: "White tee", Colors: []string{"white"}},
		{Category: "footwear", Name: "Canvas sneakers", Colors: []string{"white"}},
	}}, &fakeUploader{}, nil, 2)

	garments, err := p.Detect(context.Background(), uuid.New().String(), []byte("photo"), "image/jpeg")
	require.NoError(t, err)
	assert.Len(t, garments, 2)

	p = NewPipeline(&fakeVision{detectErr: errors.New("model overloaded")}, &fakeUploader{}, nil, 2)
	_, err = p.Detect(context.Background(), uuid.New().String(), []byte("photo"), "image/jpeg")
	assert.Error(t, err)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
