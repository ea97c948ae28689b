package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/doya-app/banner-api/internal/constants"
)

// responseSchema is the strict-JSON shape requested from the text model.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"analysis":                {Type: genai.TypeString},
		"image_generation_prompt": {Type: genai.TypeString},
	},
	Required: []string{"image_generation_prompt"},
}

// JSONResult is a parsed model response.
type JSONResult struct {
	Data map[string]any
	// Model is the fallback-list entry that produced the response.
	Model string
}

// Analysis returns the model's analysis string, if present.
func (r *JSONResult) Analysis() string {
	s, _ := r.Data["analysis"].(string)
	return s
}

// ImagePrompt returns the generated image prompt.
func (r *JSONResult) ImagePrompt() string {
	s, _ := r.Data["image_generation_prompt"].(string)
	return s
}

// NegativePrompt returns the negative prompt when the model volunteered
// one; the mandated schema doesn't require it.
func (r *JSONResult) NegativePrompt() string {
	s, _ := r.Data["negative_prompt"].(string)
	return s
}

// Client calls the generative API with an ordered model fallback list.
type Client struct {
	textModels  []string
	imageModels []string
	logger      *slog.Logger

	// sleep is swapped out in tests so fallback delays don't slow them.
	sleep func(time.Duration)

	generateText  func(ctx context.Context, model, prompt string, strict bool) (string, error)
	generateImage func(ctx context.Context, model, prompt string, refs []ReferenceImage) ([]byte, string, error)
}

// NewClient creates a Client backed by the Gemini API. Returns
// ErrNotConfigured when apiKey is empty.
func NewClient(ctx context.Context, apiKey string, textModels, imageModels []string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	c := &Client{
		textModels:  textModels,
		imageModels: imageModels,
		logger:      logger,
		sleep:       time.Sleep,
	}
	c.generateText = func(ctx context.Context, model, prompt string, strict bool) (string, error) {
		config := &genai.GenerateContentConfig{}
		if strict {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = responseSchema
		}
		resp, err := genaiClient.Models.GenerateContent(ctx, model,
			[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, config)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	c.generateImage = func(ctx context.Context, model, prompt string, refs []ReferenceImage) ([]byte, string, error) {
		parts := []*genai.Part{genai.NewPartFromText(prompt)}
		for _, ref := range refs {
			parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MIMEType))
		}
		config := &genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		}
		resp, err := genaiClient.Models.GenerateContent(ctx, model,
			[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
		if err != nil {
			return nil, "", err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					return part.InlineData.Data, part.InlineData.MIMEType, nil
				}
			}
		}
		return nil, "", ErrNoImageProduced
	}
	return c, nil
}

// GenerateJSON runs the prompt through the text model fallback list and
// returns the first parseable JSON object containing a non-empty
// image_generation_prompt.
//
// Per model: attempt in strict-JSON mode, retrying once after a short pause
// on a transient 502/503. If the model rejects strict mode (400 naming the
// response schema or mime type), retry relaxed with the same backoff policy
// and coerce whatever text comes back. Any other failure moves on to the
// next model. First success short-circuits the list.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (*JSONResult, error) {
	var lastErr error

	for _, model := range c.textModels {
		text, err := c.generateWithBackoff(ctx, model, prompt, true)
		if err != nil {
			classified := ClassifyError(err, model)
			if classified.RetryRelaxed {
				c.logger.Debug("strict JSON rejected, retrying relaxed", "model", model)
				text, err = c.generateWithBackoff(ctx, model, prompt, false)
			}
			if err != nil {
				classified = ClassifyError(err, model)
				c.logger.Warn("model attempt failed",
					"model", model, "category", classified.Category, "error", err)
				lastErr = classified
				if !classified.ShouldFallback && !classified.RetryRelaxed {
					break
				}
				continue
			}
		}

		data := CoerceJSON(text)
		if data == nil {
			lastErr = fmt.Errorf("model %s returned unparseable output", model)
			c.logger.Warn("unparseable model output", "model", model)
			continue
		}
		result := &JSONResult{Data: data, Model: model}
		if result.ImagePrompt() == "" {
			lastErr = fmt.Errorf("model %s omitted image_generation_prompt", model)
			continue
		}
		return result, nil
	}

	if lastErr == nil {
		lastErr = ErrAllModelsFailed
	}
	return nil, fmt.Errorf("%w: %w", ErrAllModelsFailed, lastErr)
}

// generateWithBackoff performs one model call, retrying once after
// ModelFallbackDelay when the failure is a transient 502/503.
func (c *Client) generateWithBackoff(ctx context.Context, model, prompt string, strict bool) (string, error) {
	text, err := c.generateText(ctx, model, prompt, strict)
	if err == nil {
		return text, nil
	}
	if classified := ClassifyError(err, model); classified.Category != "transient" {
		return "", err
	}
	c.sleep(constants.ModelFallbackDelay)
	return c.generateText(ctx, model, prompt, strict)
}
