package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/doya-app/banner-api/internal/constants"
)

// ReferenceImage is a decoded user-supplied asset (logo, person photo, base
// image) passed through to the image model.
type ReferenceImage struct {
	Data     []byte
	MIMEType string
}

// GeneratedImage is one produced banner.
type GeneratedImage struct {
	DataURL       string
	PatternLetter string
}

// ImageResult is the outcome of one generation batch.
type ImageResult struct {
	Images []GeneratedImage
	// Model is the image model that produced the batch.
	Model string
}

// patternLetter labels images within a batch: A, B, C, ...
func patternLetter(i int) string {
	return string(rune('A' + i))
}

// GenerateImages produces count banner variations from the assembled prompt.
// Each variation asks for a distinct composition so a batch isn't N near
// copies. Models are tried in fallback order; a model that fails on the
// first image is abandoned for the next one, but once a model has produced
// at least one image, partial output is returned rather than redoing the
// batch elsewhere.
func (c *Client) GenerateImages(ctx context.Context, imagePrompt, size string, brandColors []string, refs []ReferenceImage, count int) (*ImageResult, error) {
	if count < 1 {
		count = 1
	}

	var lastErr error
	for _, model := range c.imageModels {
		result := &ImageResult{Model: model}

		for i := 0; i < count; i++ {
			letter := patternLetter(i)
			prompt := buildImagePrompt(imagePrompt, size, brandColors, letter, count)

			data, mimeType, err := c.generateImageWithBackoff(ctx, model, prompt, refs)
			if err != nil {
				classified := ClassifyError(err, model)
				c.logger.Warn("image generation failed",
					"model", model, "pattern", letter, "category", classified.Category, "error", err)
				lastErr = classified
				break
			}
			result.Images = append(result.Images, GeneratedImage{
				DataURL:       toDataURL(data, mimeType),
				PatternLetter: letter,
			})
		}

		if len(result.Images) > 0 {
			return result, nil
		}
	}

	if lastErr == nil {
		lastErr = ErrAllModelsFailed
	}
	return nil, fmt.Errorf("%w: %w", ErrAllModelsFailed, lastErr)
}

func (c *Client) generateImageWithBackoff(ctx context.Context, model, prompt string, refs []ReferenceImage) ([]byte, string, error) {
	data, mimeType, err := c.generateImage(ctx, model, prompt, refs)
	if err == nil {
		return data, mimeType, nil
	}
	if classified := ClassifyError(err, model); classified.Category != "transient" {
		return nil, "", err
	}
	c.sleep(constants.ModelFallbackDelay)
	return c.generateImage(ctx, model, prompt, refs)
}

// buildImagePrompt appends per-pattern variation and hard constraints to the
// model-authored prompt.
func buildImagePrompt(imagePrompt, size string, brandColors []string, letter string, count int) string {
	var b strings.Builder
	b.WriteString(imagePrompt)
	fmt.Fprintf(&b, "\n\nOutput size: %s pixels, exact.", size)
	if len(brandColors) > 0 {
		fmt.Fprintf(&b, "\nBrand colors to honor: %s.", strings.Join(brandColors, ", "))
	}
	if count > 1 {
		fmt.Fprintf(&b, "\nVariation %s of %d: use a layout and composition distinct from the other variations.", letter, count)
	}
	return b.String()
}

func toDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
