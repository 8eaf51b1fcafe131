// Package vision wraps the Gemini API for the three image tasks the
// wardrobe depends on: garment detection, garment isolation, and try-on
// composition.
package vision

import (
	"context"
	"fmt"

	"github.com/stylevault/backend/internal/telemetry"
	"google.golang.org/genai"
)

// DetectedGarment is one garment found in a wardrobe photo, with the
// structured metadata the model extracted for it.
type DetectedGarment struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Material    string   `json:"material"`
	Pattern     string   `json:"pattern"`
	Colors      []string `json:"colors"`
	Seasons     []string `json:"seasons"`
	DressCodes  []string `json:"dress_codes"`
}

// TryOnProfile carries the user attributes the try-on prompt needs
type TryOnProfile struct {
	Gender   string
	HeightCM int
	WeightKG int
	BodyType string
}

// Client talks to Gemini. visionModel handles detection (text out),
// imageModel handles isolation and try-on composition (image out).
type Client struct {
	client      *genai.Client
	visionModel string
	imageModel  string
}

// NewClient creates a Gemini-backed vision client
func NewClient(ctx context.Context, apiKey, visionModel, imageModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if visionModel == "" {
		visionModel = "gemini-2.5-flash"
	}
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		HTTPClient: telemetry.NewHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:      client,
		visionModel: visionModel,
		imageModel:  imageModel,
	}, nil
}

// DetectGarments runs clothing detection over a photo and returns the
// structured garments the model found. An empty slice is a valid result.
func (c *Client) DetectGarments(ctx context.Context, imageData []byte, mimeType string) ([]DetectedGarment, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(detectPrompt),
		}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.visionModel, contents,
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("garment detection failed: %w", err)
	}

	garments, err := parseDetections(result.Text())
	if err != nil {
		return nil, fmt.Errorf("garment detection returned unparseable output: %w", err)
	}

	return garments, nil
}

// GenerateItemImage produces an isolated product-style image of one
// detected garment, cut out from the source photo on a plain background.
func (c *Client) GenerateItemImage(ctx context.Context, sourceImage []byte, mimeType string, garment DetectedGarment) ([]byte, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(sourceImage, mimeType),
			genai.NewPartFromText(isolatePrompt(garment)),
		}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("garment isolation failed: %w", err)
	}

	image := firstInlineImage(result)
	if image == nil {
		return nil, fmt.Errorf("garment isolation returned no image")
	}

	return image, nil
}

// GenerateTryOn composes a virtual try-on render from the user's profile
// and the isolated garment images, in the order given.
func (c *Client) GenerateTryOn(ctx context.Context, profile TryOnProfile, itemImages [][]byte) ([]byte, error) {
	if len(itemImages) == 0 {
		return nil, fmt.Errorf("try-on requires at least one garment image")
	}

	parts := make([]*genai.Part, 0, len(itemImages)+1)
	for _, img := range itemImages {
		parts = append(parts, genai.NewPartFromBytes(img, "image/png"))
	}
	parts = append(parts, genai.NewPartFromText(tryOnPrompt(profile)))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("try-on generation failed: %w", err)
	}

	image := firstInlineImage(result)
	if image == nil {
		return nil, fmt.Errorf("try-on generation returned no image")
	}

	return image, nil
}

// firstInlineImage extracts the first inline image payload from a response
func firstInlineImage(result *genai.GenerateContentResponse) []byte {
	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}
