package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

const detectPrompt = `Identify every distinct clothing item, pair of shoes, or
accessory visible in this photo. Respond with a JSON array where each element
has these fields:
  "category": one of "top", "bottom", "dress", "outerwear", "footwear", "accessory"
  "subcategory": a short noun like "t-shirt", "jeans", "sneakers"
  "name": a short human-friendly name, e.g. "Blue striped oxford shirt"
  "description": one sentence describing the garment
  "brand": the brand if a logo or label is clearly visible, otherwise ""
  "material": the likely primary material, e.g. "cotton", "denim", "leather"
  "pattern": e.g. "solid", "striped", "plaid", "floral"
  "colors": an array of dominant color names, most dominant first
  "seasons": a subset of ["spring", "summer", "autumn", "winter", "all"]
  "dress_codes": a subset of ["casual", "smart_casual", "business", "formal", "sport"]
Only include garments worn or laid out deliberately; ignore background
clutter. Return [] if no clothing is visible.`

// isolatePrompt asks the image model to cut one garment out of the photo
func isolatePrompt(g DetectedGarment) string {
	return fmt.Sprintf(`From this photo, extract only the following item: %s
(%s, %s). Produce a clean product-catalog image of just that garment on a
plain white background, front-facing, evenly lit, with no person, hangers,
or other items visible.`, g.Name, g.Subcategory, strings.Join(g.Colors, "/"))
}

// tryOnPrompt asks the image model to dress a model matching the profile
// in the supplied garment images.
func tryOnPrompt(p TryOnProfile) string {
	var b strings.Builder
	b.WriteString("Generate a full-body photo of a person wearing all of the garments shown in the attached images together as one outfit.")
	if p.Gender != "" {
		fmt.Fprintf(&b, " The person is %s.", p.Gender)
	}
	if p.HeightCM > 0 {
		fmt.Fprintf(&b, " They are about %d cm tall.", p.HeightCM)
	}
	if p.WeightKG > 0 {
		fmt.Fprintf(&b, " They weigh about %d kg.", p.WeightKG)
	}
	if p.BodyType != "" {
		fmt.Fprintf(&b, " Body type: %s.", p.BodyType)
	}
	b.WriteString(" Neutral studio background, natural pose, photorealistic. The garments must keep their exact colors, patterns and cut.")
	return b.String()
}

// parseDetections parses the model's JSON output. Models occasionally wrap
// JSON in markdown fences even when asked for raw JSON, so those are
// stripped first.
func parseDetections(raw string) ([]DetectedGarment, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return []DetectedGarment{}, nil
	}

	var garments []DetectedGarment
	if err := json.Unmarshal([]byte(cleaned), &garments); err != nil {
		return nil, fmt.Errorf("invalid detection JSON: %w", err)
	}

	// Drop entries the model hallucinated outside the category set
	valid := garments[:0]
	for _, g := range garments {
		if isKnownCategory(g.Category) {
			valid = append(valid, g)
		}
	}

	return valid, nil
}

func isKnownCategory(c string) bool {
	switch c {
	case "top", "bottom", "dress", "outerwear", "footwear", "accessory":
		return true
	}
	return false
}
