package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetections(t *testing.T) {
	raw := `[
		{
			"category": "top",
			"subcategory": "t-shirt",
			"name": "White graphic tee",
			"description": "A white cotton t-shirt with a small chest print.",
			"brand": "",
			"material": "cotton",
			"pattern": "solid",
			"colors": ["white"],
			"seasons": ["summer", "spring"],
			"dress_codes": ["casual"]
		},
		{
			"category": "footwear",
			"subcategory": "sneakers",
			"name": "Black low-top sneakers",
			"description": "Black canvas sneakers with white soles.",
			"brand": "Converse",
			"material": "canvas",
			"pattern": "solid",
			"colors": ["black", "white"],
			"seasons": ["all"],
			"dress_codes": ["casual", "smart_casual"]
		}
	]`

	garments, err := parseDetections(raw)
	require.NoError(t, err)
	require.Len(t, garments, 2)

	assert.Equal(t, "top", garments[0].Category)
	assert.Equal(t, "White graphic tee", garments[0].Name)
	assert.Equal(t, []string{"white"}, garments[0].Colors)
	assert.Equal(t, "Converse", garments[1].Brand)
	assert.Equal(t, []string{"casual", "smart_casual"}, garments[1].DressCodes)
}

func TestParseDetectionsMarkdownFenced(t *testing.T) {
	raw := "```json\n[{\"category\": \"bottom\", \"subcategory\": \"jeans\", \"name\": \"Blue jeans\", \"colors\": [\"blue\"]}]\n```"

	garments, err := parseDetections(raw)
	require.NoError(t, err)
	require.Len(t, garments, 1)
	assert.Equal(t, "bottom", garments[0].Category)
}

func TestParseDetectionsEmpty(t *testing.T) {
	for _, raw := range []string{"", "[]", "```json\n[]\n```"} {
		garments, err := parseDetections(raw)
		require.NoError(t, err, "input: %q", raw)
		assert.Empty(t, garments)
	}
}

func TestParseDetectionsDropsUnknownCategories(t *testing.T) {
	raw := `[
		{"category": "top", "name": "Shirt"},
		{"category": "spaceship", "name": "Not clothing"},
		{"category": "footwear", "name": "Boots"}
	]`

	garments, err := parseDetections(raw)
	require.NoError(t, err)
	require.Len(t, garments, 2)
	assert.Equal(t, "Shirt", garments[0].Name)
	assert.Equal(t, "Boots", garments[1].Name)
}

func TestParseDetectionsInvalidJSON(t *testing.T) {
	_, err := parseDetections("not json at all")
	assert.Error(t, err)
}

func TestTryOnPromptIncludesProfile(t *testing.T) {
	prompt := tryOnPrompt(TryOnProfile{
		Gender:   "female",
		HeightCM: 170,
		WeightKG: 60,
		BodyType: "athletic",
	})

	assert.Contains(t, prompt, "female")
	assert.Contains(t, prompt, "170 cm")
	assert.Contains(t, prompt, "60 kg")
	assert.Contains(t, prompt, "athletic")
}

func TestTryOnPromptSkipsEmptyFields(t *testing.T) {
	prompt := tryOnPrompt(TryOnProfile{})

	assert.NotContains(t, prompt, "cm tall")
	assert.NotContains(t, prompt, "kg")
	assert.NotContains(t, prompt, "Body type")
}
