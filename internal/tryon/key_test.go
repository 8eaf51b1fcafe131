package tryon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stylevault/backend/internal/models"
)

func TestCacheKeyOrderInsensitive(t *testing.T) {
	fp := []string{"female", "170", "60", "average", "https://cdn.example.com/avatar.png"}

	k1 := CacheKey(fp, []string{"item-a", "item-b", "item-c"})
	k2 := CacheKey(fp, []string{"item-c", "item-a", "item-b"})
	k3 := CacheKey(fp, []string{"item-b", "item-c", "item-a"})

	assert.Equal(t, k1, k2)
	assert.Equal(t, k1, k3)
	assert.Len(t, k1, 64, "key should be lowercase hex SHA-256")
}

func TestCacheKeyDistinguishesSelections(t *testing.T) {
	fp := []string{"male", "180", "75", "athletic", ""}

	k1 := CacheKey(fp, []string{"item-a", "item-b"})
	k2 := CacheKey(fp, []string{"item-a"})
	k3 := CacheKey(fp, []string{"item-a", "item-x"})

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k2, k3)
}

func TestCacheKeyProfileChangeInvalidates(t *testing.T) {
	items := []string{"item-a", "item-b"}

	user := models.User{
		Gender:    "female",
		HeightCM:  165,
		WeightKG:  58,
		BodyType:  models.BodyTypeAverage,
		AvatarURL: "https://cdn.example.com/a.png",
	}
	before := CacheKey(user.RenderFingerprint(), items)

	user.HeightCM = 166
	after := CacheKey(user.RenderFingerprint(), items)
	assert.NotEqual(t, before, after, "height change must produce a new key")

	user.HeightCM = 165
	assert.Equal(t, before, CacheKey(user.RenderFingerprint(), items))

	user.AvatarURL = "https://cdn.example.com/b.png"
	assert.NotEqual(t, before, CacheKey(user.RenderFingerprint(), items))
}

func TestCacheKeyDeduplicatesItemIDs(t *testing.T) {
	fp := []string{"female", "170", "60", "average", ""}

	k1 := CacheKey(fp, []string{"item-a", "item-b"})
	k2 := CacheKey(fp, []string{"item-a", "item-a", "item-b"})
	k3 := CacheKey(fp, []string{"item-b", "item-a", "item-b", "item-a"})

	assert.Equal(t, k1, k2)
	assert.Equal(t, k1, k3)
}

func TestCacheKeyFieldBoundaries(t *testing.T) {
	// Concatenation without separators would collide here
	k1 := CacheKey([]string{"ab", "c"}, nil)
	k2 := CacheKey([]string{"a", "bc"}, nil)
	assert.NotEqual(t, k1, k2)
}
