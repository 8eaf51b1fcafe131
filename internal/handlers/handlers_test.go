package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stylevault/backend/internal/auth"
	"github.com/stylevault/backend/internal/database"
	applogger "github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/storage"
	"github.com/stylevault/backend/internal/tryon"
	"github.com/stylevault/backend/internal/vision"
	"github.com/stylevault/backend/internal/wardrobe"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = applogger.Initialize("error", "")
	os.Exit(m.Run())
}

// fakeUploader satisfies storage.ImageUploader without S3
type fakeUploader struct {
	deletes int
}

func (f *fakeUploader) upload(prefix string) (*storage.UploadResult, error) {
	key := prefix + "/" + uuid.New().String() + ".png"
	return &storage.UploadResult{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) UploadItemImage(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	return f.upload("items")
}

func (f *fakeUploader) UploadSourcePhoto(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	return f.upload("sources")
}

func (f *fakeUploader) UploadTryOnRender(ctx context.Context, data []byte, userID, cacheKey string) (*storage.UploadResult, error) {
	key := "tryon/" + userID + "/" + cacheKey + ".png"
	return &storage.UploadResult{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeUploader) UploadAvatar(ctx context.Context, data []byte, userID, filename string) (*storage.UploadResult, error) {
	return f.upload("avatars")
}

func (f *fakeUploader) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	return []byte("image-bytes"), nil
}

func (f *fakeUploader) DeleteFile(ctx context.Context, key string) error {
	f.deletes++
	return nil
}

// fakeVision serves canned detections and deterministic images
type fakeVision struct {
	detections  []vision.DetectedGarment
	detectErr   error
	generateErr error
	tryOnCalls  int
}

func (f *fakeVision) DetectGarments(ctx context.Context, imageData []byte, mimeType string) ([]vision.DetectedGarment, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return f.detections, nil
}

func (f *fakeVision) GenerateItemImage(ctx context.Context, sourceImage []byte, mimeType string, garment vision.DetectedGarment) ([]byte, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return []byte("isolated"), nil
}

func (f *fakeVision) GenerateTryOn(ctx context.Context, profile vision.TryOnProfile, itemImages [][]byte) ([]byte, error) {
	f.tryOnCalls++
	return []byte("composite"), nil
}

// HandlersTestSuite exercises the HTTP layer against a real database
type HandlersTestSuite struct {
	db          *gorm.DB
	router      *gin.Engine
	handlers    *Handlers
	authService *auth.Service
	uploader    *fakeUploader
	visionFake  *fakeVision
	testUser    *models.User
	t           *testing.T
}

func newHandlersSuite(t *testing.T) *HandlersTestSuite {
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
		t.Skipf("Skipping handler tests: database not available (%v)", err)
		return nil
	}

	database.DB = db

	err = db.AutoMigrate(
		&models.User{},
		&models.ClothingItem{},
		&models.Outfit{},
		&models.OutfitItem{},
		&models.TryOnRender{},
	)
	require.NoError(t, err)

	// Clean between suites sharing the database
	db.Exec("DELETE FROM tryon_renders")
	db.Exec("DELETE FROM outfit_items")
	db.Exec("DELETE FROM outfits")
	db.Exec("DELETE FROM clothing_items")
	db.Exec("DELETE FROM users")

	suite := &HandlersTestSuite{db: db, t: t}
	suite.uploader = &fakeUploader{}
	suite.visionFake = &fakeVision{}
	suite.authService = auth.NewService([]byte("test_jwt_secret"), "", "")

	pipeline := wardrobe.NewPipeline(suite.visionFake, suite.uploader, nil, 2)
	tryonSvc := tryon.NewService(suite.uploader, suite.visionFake)

	suite.handlers = NewHandlers(suite.authService, suite.uploader, pipeline, tryonSvc)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()

	suite.testUser = &models.User{
		ID:          uuid.New().String(),
		Email:       "handler@test.com",
		Username:    "handlertest",
		DisplayName: "Handler Test",
		Gender:      "female",
		HeightCM:    168,
		WeightKG:    60,
		BodyType:    models.BodyTypeAverage,
	}
	require.NoError(t, db.Create(suite.testUser).Error)

	return suite
}

// setupRoutes mirrors the production route table with header-based auth
func (suite *HandlersTestSuite) setupRoutes() {
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Set("user", &user)
		c.Next()
	}

	v1 := suite.router.Group("/api/v1")

	v1.POST("/auth/register", suite.handlers.Register)
	v1.POST("/auth/login", suite.handlers.Login)
	v1.POST("/auth/login/2fa", suite.handlers.VerifyLogin2FA)

	api := v1.Group("")
	api.Use(authMiddleware)

	api.GET("/users/me", suite.handlers.GetMyProfile)
	api.PUT("/users/me", suite.handlers.UpdateMyProfile)
	api.POST("/users/me/avatar", suite.handlers.UploadAvatar)

	api.POST("/wardrobe/detect", suite.handlers.DetectGarments)
	api.POST("/wardrobe/items", suite.handlers.CreateItems)
	api.GET("/wardrobe/items", suite.handlers.ListItems)
	api.GET("/wardrobe/items/:id", suite.handlers.GetItem)
	api.PUT("/wardrobe/items/:id", suite.handlers.UpdateItem)
	api.DELETE("/wardrobe/items/:id", suite.handlers.DeleteItem)
	api.POST("/wardrobe/items/:id/favorite", suite.handlers.ToggleFavorite)
	api.POST("/wardrobe/items/:id/worn", suite.handlers.MarkItemWorn)
	api.GET("/wardrobe/search", suite.handlers.SearchItems)
	api.GET("/wardrobe/stats", suite.handlers.GetWardrobeStats)

	api.POST("/tryon", suite.handlers.CreateTryOn)
	api.GET("/tryon", suite.handlers.ListTryOns)
	api.DELETE("/tryon/:id", suite.handlers.DeleteTryOn)

	api.POST("/outfits/suggest", suite.handlers.SuggestOutfit)
	api.POST("/outfits", suite.handlers.CreateOutfit)
	api.GET("/outfits", suite.handlers.ListOutfits)
	api.GET("/outfits/:id", suite.handlers.GetOutfit)
	api.DELETE("/outfits/:id", suite.handlers.DeleteOutfit)
	api.POST("/outfits/:id/worn", suite.handlers.MarkOutfitWorn)
}

// do sends an authenticated JSON request
func (suite *HandlersTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", suite.testUser.ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// doMultipart sends an authenticated multipart photo upload
func (suite *HandlersTestSuite) doMultipart(path, filename string, fields map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("photo", filename)
	require.NoError(suite.t, err)
	_, err = part.Write([]byte("fake-image-data"))
	require.NoError(suite.t, err)
	for k, v := range fields {
		require.NoError(suite.t, writer.WriteField(k, v))
	}
	require.NoError(suite.t, writer.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-ID", suite.testUser.ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func testGarments() []vision.DetectedGarment {
	return []vision.DetectedGarment{
		{
			Category:   "top",
			Name:       "blue oxford shirt",
			Colors:     []string{"blue"},
			Seasons:    []string{"spring", "autumn"},
			DressCodes: []string{models.DressCodeSmart},
			Material:   "cotton",
		},
		{
			Category:   "bottom",
			Name:       "black chinos",
			Colors:     []string{"black"},
			DressCodes: []string{models.DressCodeSmart, models.DressCodeCasual},
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestDetectAndCreateItems(t *testing.T) {
	suite := newHandlersSuite(t)
	suite.visionFake.detections = testGarments()

	// Detect returns garments without creating anything
	w := suite.doMultipart("/api/v1/wardrobe/detect", "closet.jpg", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	require.Equal(t, float64(2), body["count"])

	var count int64
	suite.db.Model(&models.ClothingItem{}).Count(&count)
	require.Zero(t, count)

	// Create persists the selected garments
	garmentsJSON, _ := json.Marshal(testGarments())
	w = suite.doMultipart("/api/v1/wardrobe/items", "closet.jpg", map[string]string{
		"garments": string(garmentsJSON),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body = decode(t, w)
	require.Len(t, body["created"], 2)
	require.Empty(t, body["failed"])

	suite.db.Model(&models.ClothingItem{}).Count(&count)
	require.Equal(t, int64(2), count)
}

func TestDetectRejectsBadUploads(t *testing.T) {
	suite := newHandlersSuite(t)

	// Wrong extension
	w := suite.doMultipart("/api/v1/wardrobe/detect", "notes.txt", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Missing file entirely
	w = suite.do("POST", "/api/v1/wardrobe/detect", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateItemsTotalUpstreamFailure(t *testing.T) {
	suite := newHandlersSuite(t)
	suite.visionFake.generateErr = errors.New("model unavailable")

	garmentsJSON, _ := json.Marshal(testGarments())
	w := suite.doMultipart("/api/v1/wardrobe/items", "closet.jpg", map[string]string{
		"garments": string(garmentsJSON),
	})
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	body := decode(t, w)
	require.Empty(t, body["created"])
	require.Len(t, body["failed"], 2)
}

func TestWardrobeCRUD(t *testing.T) {
	suite := newHandlersSuite(t)

	item := models.ClothingItem{
		UserID:     suite.testUser.ID,
		Category:   models.CategoryTop,
		Name:       "blue oxford shirt",
		Colors:     models.StringArray{"blue"},
		Seasons:    models.StringArray{"spring"},
		DressCodes: models.StringArray{models.DressCodeSmart},
		ImageURL:   "https://cdn.test/items/a.png",
		ImageKey:   "items/a.png",
	}
	require.NoError(t, suite.db.Create(&item).Error)

	// List with a matching filter
	w := suite.do("GET", "/api/v1/wardrobe/items?category=top", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode(t, w)["items"], 1)

	// Filter that excludes it
	w = suite.do("GET", "/api/v1/wardrobe/items?category=footwear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decode(t, w)["items"])

	// Get
	w = suite.do("GET", "/api/v1/wardrobe/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Update
	w = suite.do("PUT", "/api/v1/wardrobe/items/"+item.ID, gin.H{
		"name":  "light blue oxford",
		"brand": "Uniqlo",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.ClothingItem
	require.NoError(t, suite.db.First(&updated, "id = ?", item.ID).Error)
	require.Equal(t, "light blue oxford", updated.Name)
	require.Equal(t, "Uniqlo", updated.Brand)

	// Favorite toggle
	w = suite.do("POST", "/api/v1/wardrobe/items/"+item.ID+"/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	suite.db.First(&updated, "id = ?", item.ID)
	require.True(t, updated.IsFavorite)

	// Wear tracking
	w = suite.do("POST", "/api/v1/wardrobe/items/"+item.ID+"/worn", nil)
	require.Equal(t, http.StatusOK, w.Code)
	suite.db.First(&updated, "id = ?", item.ID)
	require.Equal(t, 1, updated.WearCount)
	require.NotNil(t, updated.LastWornAt)

	// Delete removes the row and the object
	w = suite.do("DELETE", "/api/v1/wardrobe/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, suite.uploader.deletes)

	w = suite.do("GET", "/api/v1/wardrobe/items/"+item.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestWardrobeOwnership(t *testing.T) {
	suite := newHandlersSuite(t)

	other := models.User{
		ID:          uuid.New().String(),
		Email:       "stranger@test.com",
		Username:    "stranger",
		DisplayName: "Stranger",
	}
	require.NoError(t, suite.db.Create(&other).Error)

	foreign := models.ClothingItem{
		UserID:   other.ID,
		Category: models.CategoryTop,
		Name:     "someone else's shirt",
		ImageURL: "https://cdn.test/x.png",
		ImageKey: "items/x.png",
	}
	require.NoError(t, suite.db.Create(&foreign).Error)

	// Other users' items are invisible, not forbidden
	w := suite.do("GET", "/api/v1/wardrobe/items/"+foreign.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do("DELETE", "/api/v1/wardrobe/items/"+foreign.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	suite := newHandlersSuite(t)

	item := models.ClothingItem{
		UserID:   suite.testUser.ID,
		Category: models.CategoryOuterwear,
		Name:     "green waxed jacket",
		Brand:    "Barbour",
		ImageURL: "https://cdn.test/j.png",
		ImageKey: "items/j.png",
	}
	require.NoError(t, suite.db.Create(&item).Error)

	// No search client configured: the ILIKE fallback serves the query
	w := suite.do("GET", "/api/v1/wardrobe/search?q=waxed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, "database", body["source"])
	require.Len(t, body["results"], 1)

	w = suite.do("GET", "/api/v1/wardrobe/search?q=nonexistent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decode(t, w)["results"])

	w = suite.do("GET", "/api/v1/wardrobe/search", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTryOnFlow(t *testing.T) {
	suite := newHandlersSuite(t)

	a := models.ClothingItem{
		UserID: suite.testUser.ID, Category: models.CategoryTop,
		Name: "shirt", ImageURL: "https://cdn.test/a.png", ImageKey: "items/a.png",
	}
	b := models.ClothingItem{
		UserID: suite.testUser.ID, Category: models.CategoryBottom,
		Name: "jeans", ImageURL: "https://cdn.test/b.png", ImageKey: "items/b.png",
	}
	require.NoError(t, suite.db.Create(&a).Error)
	require.NoError(t, suite.db.Create(&b).Error)

	// First render is a miss
	w := suite.do("POST", "/api/v1/tryon", gin.H{"item_ids": []string{a.ID, b.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, false, decode(t, w)["cached"])
	require.Equal(t, 1, suite.visionFake.tryOnCalls)

	// Same items reversed is a hit
	w = suite.do("POST", "/api/v1/tryon", gin.H{"item_ids": []string{b.ID, a.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["cached"])
	require.Equal(t, 1, suite.visionFake.tryOnCalls)

	// force regenerates
	w = suite.do("POST", "/api/v1/tryon", gin.H{"item_ids": []string{a.ID, b.ID}, "force": true})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 2, suite.visionFake.tryOnCalls)

	// List shows the single cached render
	w = suite.do("GET", "/api/v1/tryon", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(1), body["count"])

	renders := body["renders"].([]interface{})
	renderID := renders[0].(map[string]interface{})["id"].(string)

	w = suite.do("DELETE", "/api/v1/tryon/"+renderID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.do("DELETE", "/api/v1/tryon/"+renderID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Unknown items are rejected
	w = suite.do("POST", "/api/v1/tryon", gin.H{"item_ids": []string{uuid.New().String()}})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOutfitLifecycle(t *testing.T) {
	suite := newHandlersSuite(t)

	mk := func(name string, cat models.ItemCategory) models.ClothingItem {
		item := models.ClothingItem{
			UserID: suite.testUser.ID, Category: cat, Name: name,
			DressCodes: models.StringArray{models.DressCodeCasual},
			ImageURL:   "https://cdn.test/" + name + ".png",
			ImageKey:   "items/" + name + ".png",
		}
		require.NoError(t, suite.db.Create(&item).Error)
		return item
	}
	top := mk("shirt", models.CategoryTop)
	bottom := mk("jeans", models.CategoryBottom)
	shoes := mk("sneakers", models.CategoryFootwear)

	// Suggest finds a full outfit
	w := suite.do("POST", "/api/v1/outfits/suggest", gin.H{"dress_code": models.DressCodeCasual})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	suggestion := decode(t, w)["suggestion"].(map[string]interface{})
	require.Len(t, suggestion["picks"], 3)

	// Save it
	w = suite.do("POST", "/api/v1/outfits", gin.H{
		"name":       "weekend look",
		"dress_code": models.DressCodeCasual,
		"members": []gin.H{
			{"item_id": top.ID, "slot": "top"},
			{"item_id": bottom.ID, "slot": "bottom"},
			{"item_id": shoes.ID, "slot": "footwear"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	outfitID := decode(t, w)["outfit"].(map[string]interface{})["id"].(string)

	// List and get
	w = suite.do("GET", "/api/v1/outfits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), decode(t, w)["count"])

	w = suite.do("GET", "/api/v1/outfits/"+outfitID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Mark worn bumps the outfit and every member item
	w = suite.do("POST", "/api/v1/outfits/"+outfitID+"/worn", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var wornItem models.ClothingItem
	require.NoError(t, suite.db.First(&wornItem, "id = ?", top.ID).Error)
	require.Equal(t, 1, wornItem.WearCount)
	require.NotNil(t, wornItem.LastWornAt)

	var outfit models.Outfit
	require.NoError(t, suite.db.First(&outfit, "id = ?", outfitID).Error)
	require.Equal(t, 1, outfit.WornCount)

	// Delete keeps the items
	w = suite.do("DELETE", "/api/v1/outfits/"+outfitID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var itemCount int64
	suite.db.Model(&models.ClothingItem{}).Where("user_id = ?", suite.testUser.ID).Count(&itemCount)
	require.Equal(t, int64(3), itemCount)

	// Saving with a foreign item fails
	w = suite.do("POST", "/api/v1/outfits", gin.H{
		"name": "bad outfit",
		"members": []gin.H{
			{"item_id": uuid.New().String(), "slot": "top"},
		},
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggestWithEmptyWardrobe(t *testing.T) {
	suite := newHandlersSuite(t)

	w := suite.do("POST", "/api/v1/outfits/suggest", gin.H{})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestProfileUpdateAndAuth(t *testing.T) {
	suite := newHandlersSuite(t)

	// Unauthenticated requests are rejected
	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Profile read
	w2 := suite.do("GET", "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, w2.Code)

	// Styling fields update
	w2 = suite.do("PUT", "/api/v1/users/me", gin.H{
		"height_cm": 172,
		"body_type": models.BodyTypeAthletic,
	})
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())

	var updated models.User
	require.NoError(t, suite.db.First(&updated, "id = ?", suite.testUser.ID).Error)
	require.Equal(t, 172, updated.HeightCM)
	require.Equal(t, models.BodyTypeAthletic, updated.BodyType)

	// Unknown body type is rejected
	w2 = suite.do("PUT", "/api/v1/users/me", gin.H{"body_type": "heroic"})
	require.Equal(t, http.StatusUnprocessableEntity, w2.Code)
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	suite := newHandlersSuite(t)

	w := suite.do("POST", "/api/v1/auth/register", gin.H{
		"email":        "newuser@test.com",
		"username":     "newuser",
		"password":     "password123",
		"display_name": "New User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotEmpty(t, decode(t, w)["token"])

	// Duplicate registration conflicts
	w = suite.do("POST", "/api/v1/auth/register", gin.H{
		"email":        "newuser@test.com",
		"username":     "newuser2",
		"password":     "password123",
		"display_name": "New User",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = suite.do("POST", "/api/v1/auth/login", gin.H{
		"email":    "newuser@test.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, decode(t, w)["token"])

	// Wrong password and unknown email both return the same 401
	w = suite.do("POST", "/api/v1/auth/login", gin.H{
		"email":    "newuser@test.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = suite.do("POST", "/api/v1/auth/login", gin.H{
		"email":    "ghost@test.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware(t *testing.T) {
	suite := newHandlersSuite(t)

	// A separate router using the real JWT middleware
	router := gin.New()
	router.GET("/me", suite.handlers.AuthMiddleware(), suite.handlers.GetMyProfile)

	resp, err := suite.authService.GenerateTokenForUser(suite.testUser)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/me", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
