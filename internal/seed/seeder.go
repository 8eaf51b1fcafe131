package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/models"
	"github.com/stylevault/backend/internal/search"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db           *gorm.DB
	searchClient *search.Client
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SetSearchClient sets the Elasticsearch client so seeded items get indexed
func (s *Seeder) SetSearchClient(sc *search.Client) {
	s.searchClient = sc
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(25)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating wardrobe items...")
	itemsByUser, err := s.seedItems(users, 30)
	if err != nil {
		return fmt.Errorf("failed to seed items: %w", err)
	}

	log("Creating outfits...")
	if err := s.seedOutfits(users, itemsByUser, 4); err != nil {
		return fmt.Errorf("failed to seed outfits: %w", err)
	}

	if s.searchClient != nil {
		log("Indexing items in Elasticsearch...")
		if err := s.indexItems(itemsByUser); err != nil {
			return fmt.Errorf("failed to index items: %w", err)
		}
	} else {
		log("Search client not configured - skipping item indexing")
	}

	return nil
}

// SeedTest seeds the test database with a small fixed set of accounts
func (s *Seeder) SeedTest() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating test users...")
	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
	}{
		{"alice", "alice@example.com", "Alice Smith"},
		{"bob", "bob@example.com", "Bob Johnson"},
		{"charlie", "charlie@example.com", "Charlie Brown"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		user = models.User{
			Email:        spec.email,
			Username:     spec.username,
			DisplayName:  spec.displayName,
			PasswordHash: &hashedPasswordStr,
			Gender:       "female",
			HeightCM:     165,
			WeightKG:     60,
			BodyType:     models.BodyTypeAverage,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	log("Creating test wardrobe items...")
	if _, err := s.seedItems(users, 8); err != nil {
		return fmt.Errorf("failed to seed items: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	if err := s.db.Exec("DELETE FROM tryon_renders").Error; err != nil {
		return fmt.Errorf("failed to clean tryon_renders: %w", err)
	}
	if err := s.db.Exec("DELETE FROM outfit_items").Error; err != nil {
		return fmt.Errorf("failed to clean outfit_items: %w", err)
	}
	if err := s.db.Exec("DELETE FROM outfits").Error; err != nil {
		return fmt.Errorf("failed to clean outfits: %w", err)
	}
	if err := s.db.Exec("DELETE FROM clothing_items").Error; err != nil {
		return fmt.Errorf("failed to clean clothing_items: %w", err)
	}
	if err := s.db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clean users: %w", err)
	}

	return nil
}

var (
	genders   = []string{"female", "male", "nonbinary"}
	bodyTypes = []string{
		models.BodyTypeSlim, models.BodyTypeAverage, models.BodyTypeAthletic,
		models.BodyTypeCurvy, models.BodyTypePlus,
	}
	styleTagPool = []string{
		"minimalist", "streetwear", "vintage", "preppy", "bohemian",
		"athleisure", "classic", "avant-garde", "cottagecore", "grunge",
	}
)

// seedUsers creates users with realistic styling profiles
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	// Already have enough seed users, just fetch them
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Where("email LIKE '%@example.com'").Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing seed users, skipping creation",
			zap.Int64("seed_users", seedUserCount))
		return users, nil
	}

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := fmt.Sprintf("%s@example.com", username)

		// Ensure unique username/email
		var existingUser models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = fmt.Sprintf("%s@example.com", username)
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		tagCount := rand.Intn(3) + 1
		tags := make(models.StringArray, 0, tagCount)
		tagSet := make(map[string]bool)
		for len(tags) < tagCount {
			tag := styleTagPool[rand.Intn(len(styleTagPool))]
			if !tagSet[tag] {
				tagSet[tag] = true
				tags = append(tags, tag)
			}
		}

		user := models.User{
			Email:        email,
			Username:     username,
			DisplayName:  gofakeit.Name(),
			PasswordHash: &hashedPasswordStr,
			Gender:       genders[rand.Intn(len(genders))],
			HeightCM:     150 + rand.Intn(50),
			WeightKG:     45 + rand.Intn(60),
			BodyType:     bodyTypes[rand.Intn(len(bodyTypes))],
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			StyleTags:    tags,
		}

		lastActive := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		user.LastActiveAt = &lastActive

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created seed users", zap.Int("count", len(users)))
	return users, nil
}

// garmentSpec is a realistic garment template for one category
type garmentSpec struct {
	category    models.ItemCategory
	subcategory string
	names       []string
	materials   []string
	seasons     []string
	dressCodes  []string
}

var garmentSpecs = []garmentSpec{
	{models.CategoryTop, "t-shirt",
		[]string{"crew neck tee", "graphic tee", "striped tee", "pocket tee"},
		[]string{"cotton", "cotton blend"},
		[]string{"spring", "summer"},
		[]string{models.DressCodeCasual}},
	{models.CategoryTop, "shirt",
		[]string{"oxford shirt", "flannel shirt", "linen shirt", "silk blouse"},
		[]string{"cotton", "linen", "silk"},
		[]string{"spring", "autumn"},
		[]string{models.DressCodeSmart, models.DressCodeBusiness}},
	{models.CategoryTop, "sweater",
		[]string{"wool sweater", "cashmere crewneck", "turtleneck", "cardigan"},
		[]string{"wool", "cashmere", "acrylic"},
		[]string{"autumn", "winter"},
		[]string{models.DressCodeCasual, models.DressCodeSmart}},
	{models.CategoryBottom, "jeans",
		[]string{"slim jeans", "straight-leg jeans", "high-waist jeans"},
		[]string{"denim"},
		[]string{"all"},
		[]string{models.DressCodeCasual}},
	{models.CategoryBottom, "trousers",
		[]string{"wool trousers", "chinos", "pleated trousers"},
		[]string{"wool", "cotton twill"},
		[]string{"autumn", "winter", "spring"},
		[]string{models.DressCodeBusiness, models.DressCodeSmart}},
	{models.CategoryBottom, "shorts",
		[]string{"denim shorts", "linen shorts", "running shorts"},
		[]string{"denim", "linen", "polyester"},
		[]string{"summer"},
		[]string{models.DressCodeCasual, models.DressCodeSport}},
	{models.CategoryDress, "dress",
		[]string{"wrap dress", "slip dress", "midi dress", "cocktail dress"},
		[]string{"silk", "viscose", "cotton"},
		[]string{"spring", "summer"},
		[]string{models.DressCodeSmart, models.DressCodeFormal}},
	{models.CategoryOuterwear, "jacket",
		[]string{"denim jacket", "leather jacket", "bomber jacket", "blazer"},
		[]string{"denim", "leather", "nylon", "wool"},
		[]string{"autumn", "spring"},
		[]string{models.DressCodeCasual, models.DressCodeSmart}},
	{models.CategoryOuterwear, "coat",
		[]string{"wool coat", "trench coat", "puffer coat", "parka"},
		[]string{"wool", "gabardine", "down"},
		[]string{"winter"},
		[]string{models.DressCodeSmart, models.DressCodeBusiness}},
	{models.CategoryFootwear, "sneakers",
		[]string{"white sneakers", "running shoes", "canvas sneakers"},
		[]string{"leather", "canvas", "mesh"},
		[]string{"all"},
		[]string{models.DressCodeCasual, models.DressCodeSport}},
	{models.CategoryFootwear, "boots",
		[]string{"chelsea boots", "combat boots", "ankle boots"},
		[]string{"leather", "suede"},
		[]string{"autumn", "winter"},
		[]string{models.DressCodeCasual, models.DressCodeSmart}},
	{models.CategoryFootwear, "dress shoes",
		[]string{"oxford shoes", "loafers", "heeled pumps"},
		[]string{"leather", "patent leather"},
		[]string{"all"},
		[]string{models.DressCodeBusiness, models.DressCodeFormal}},
	{models.CategoryAccessory, "accessory",
		[]string{"leather belt", "silk scarf", "wool beanie", "tote bag", "sunglasses"},
		[]string{"leather", "silk", "wool", "canvas", "acetate"},
		[]string{"all"},
		[]string{models.DressCodeCasual, models.DressCodeSmart}},
}

var colorPool = []string{
	"black", "white", "gray", "navy", "beige", "cream", "brown",
	"blue", "red", "green", "olive", "burgundy", "pink", "yellow",
}

var brandPool = []string{
	"Uniqlo", "COS", "Everlane", "Levi's", "Arket", "Muji",
	"Patagonia", "A.P.C.", "Massimo Dutti", "", "",
}

// seedItems fills each user's wardrobe with items across all categories
func (s *Seeder) seedItems(users []models.User, perUser int) (map[string][]models.ClothingItem, error) {
	itemsByUser := make(map[string][]models.ClothingItem, len(users))

	for _, user := range users {
		var existing int64
		s.db.Model(&models.ClothingItem{}).Where("user_id = ?", user.ID).Count(&existing)
		if existing >= int64(perUser) {
			var items []models.ClothingItem
			if err := s.db.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
				return nil, err
			}
			itemsByUser[user.ID] = items
			continue
		}

		items := make([]models.ClothingItem, 0, perUser)
		for i := 0; i < perUser; i++ {
			// Cycle through specs so every wardrobe covers every category
			spec := garmentSpecs[i%len(garmentSpecs)]
			name := spec.names[rand.Intn(len(spec.names))]
			color := colorPool[rand.Intn(len(colorPool))]

			item := models.ClothingItem{
				UserID:      user.ID,
				Category:    spec.category,
				Subcategory: spec.subcategory,
				Name:        fmt.Sprintf("%s %s", color, name),
				Description: gofakeit.Sentence(8),
				Brand:       brandPool[rand.Intn(len(brandPool))],
				Material:    spec.materials[rand.Intn(len(spec.materials))],
				Colors:      models.StringArray{color},
				Seasons:     models.StringArray(spec.seasons),
				DressCodes:  models.StringArray(spec.dressCodes),
				ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/800", user.Username, i),
				ImageKey:    fmt.Sprintf("items/%s/seed-%d.png", user.ID, i),
				IsFavorite:  rand.Float32() < 0.2,
				WearCount:   rand.Intn(20),
			}

			if item.WearCount > 0 {
				lastWorn := gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now())
				item.LastWornAt = &lastWorn
			}

			if err := s.db.Create(&item).Error; err != nil {
				return nil, fmt.Errorf("failed to create item: %w", err)
			}
			items = append(items, item)
		}
		itemsByUser[user.ID] = items
	}

	logger.Log.Info("Created seed wardrobe items", zap.Int("users", len(users)))
	return itemsByUser, nil
}

var occasions = []string{"work", "date night", "weekend", "travel", "gym", "dinner party"}

// seedOutfits assembles saved outfits out of each user's seeded wardrobe
func (s *Seeder) seedOutfits(users []models.User, itemsByUser map[string][]models.ClothingItem, perUser int) error {
	for _, user := range users {
		items := itemsByUser[user.ID]
		byCategory := make(map[models.ItemCategory][]models.ClothingItem)
		for _, item := range items {
			byCategory[item.Category] = append(byCategory[item.Category], item)
		}
		if len(byCategory[models.CategoryTop]) == 0 ||
			len(byCategory[models.CategoryBottom]) == 0 ||
			len(byCategory[models.CategoryFootwear]) == 0 {
			continue
		}

		var existing int64
		s.db.Model(&models.Outfit{}).Where("user_id = ?", user.ID).Count(&existing)
		if existing >= int64(perUser) {
			continue
		}

		for i := 0; i < perUser; i++ {
			pick := func(cat models.ItemCategory) models.ClothingItem {
				pool := byCategory[cat]
				return pool[rand.Intn(len(pool))]
			}

			top := pick(models.CategoryTop)
			bottom := pick(models.CategoryBottom)
			shoes := pick(models.CategoryFootwear)

			outfit := models.Outfit{
				UserID:    user.ID,
				Name:      fmt.Sprintf("%s %s", gofakeit.AdjectiveDescriptive(), occasions[rand.Intn(len(occasions))]),
				Occasion:  occasions[rand.Intn(len(occasions))],
				DressCode: models.DressCodeCasual,
				WornCount: rand.Intn(5),
			}

			err := s.db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&outfit).Error; err != nil {
					return err
				}
				members := []models.OutfitItem{
					{OutfitID: outfit.ID, ItemID: top.ID, Slot: "top"},
					{OutfitID: outfit.ID, ItemID: bottom.ID, Slot: "bottom"},
					{OutfitID: outfit.ID, ItemID: shoes.ID, Slot: "footwear"},
				}
				if pool := byCategory[models.CategoryOuterwear]; len(pool) > 0 && rand.Float32() < 0.5 {
					members = append(members, models.OutfitItem{
						OutfitID: outfit.ID,
						ItemID:   pool[rand.Intn(len(pool))].ID,
						Slot:     "outerwear",
					})
				}
				return tx.Create(&members).Error
			})
			if err != nil {
				return fmt.Errorf("failed to create outfit: %w", err)
			}
		}
	}

	logger.Log.Info("Created seed outfits", zap.Int("users", len(users)))
	return nil
}

// indexItems pushes seeded items into the search index
func (s *Seeder) indexItems(itemsByUser map[string][]models.ClothingItem) error {
	ctx := context.Background()
	indexed := 0
	for _, items := range itemsByUser {
		for _, item := range items {
			doc := search.ItemDocument(
				item.ID, item.UserID, string(item.Category), item.Subcategory,
				item.Name, item.Description, item.Brand, item.Colors, item.CreatedAt,
			)
			if err := s.searchClient.IndexItem(ctx, item.ID, doc); err != nil {
				logger.Log.Warn("Failed to index seeded item",
					zap.String("item_id", item.ID),
					zap.Error(err))
				continue
			}
			indexed++
		}
	}
	logger.Log.Info("Indexed seed items", zap.Int("indexed", indexed))
	return nil
}
