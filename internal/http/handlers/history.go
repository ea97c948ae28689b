package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/doya-app/banner-api/internal/models"
)

// generationItem is one history/gallery entry. The inline image is
// omitted from listings; clients fetch it per generation or from storage.
type generationItem struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batchId"`
	Pattern   string    `json:"pattern"`
	SourceURL string    `json:"sourceUrl"`
	Size      string    `json:"size"`
	UsedModel string    `json:"usedModel,omitempty"`
	Shared    bool      `json:"shared"`
	CreatedAt time.Time `json:"createdAt"`
}

func toGenerationItems(gens []*models.Generation) []generationItem {
	items := make([]generationItem, 0, len(gens))
	for _, g := range gens {
		items = append(items, generationItem{
			ID:        g.ID,
			BatchID:   g.BatchID,
			Pattern:   g.PatternLetter,
			SourceURL: g.SourceURL,
			Size:      g.Size,
			UsedModel: g.UsedModel,
			Shared:    g.ShareToGallery,
			CreatedAt: g.CreatedAt,
		})
	}
	return items
}

// ListGenerationsInput is the paging input for history listings.
type ListGenerationsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"20"`
	Offset int `query:"offset" minimum:"0" default:"0"`
}

// ListGenerationsOutput wraps a page of generation entries.
type ListGenerationsOutput struct {
	Body struct {
		Generations []generationItem `json:"generations"`
	}
}

// ListGenerations returns the authenticated user's generation history.
func (h *Handlers) ListGenerations(ctx context.Context, input *ListGenerationsInput) (*ListGenerationsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	gens, err := h.services.Banner.ListUserGenerations(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		h.logger.Error("generation history failed", "user_id", userID, "error", err)
		return nil, err
	}

	out := &ListGenerationsOutput{}
	out.Body.Generations = toGenerationItems(gens)
	return out, nil
}

// GetGenerationInput identifies one generation.
type GetGenerationInput struct {
	ID string `path:"id"`
}

// GetGenerationOutput carries one full generation including the image.
type GetGenerationOutput struct {
	Body struct {
		generationItem
		ImageDataURL string `json:"imageDataUrl,omitempty"`
		ImagePrompt  string `json:"imagePrompt,omitempty"`
		Analysis     string `json:"analysis,omitempty"`
	}
}

// GetGeneration returns one generation with its image. Owners see their
// own rows; anyone can fetch gallery-shared rows.
func (h *Handlers) GetGeneration(ctx context.Context, input *GetGenerationInput) (*GetGenerationOutput, error) {
	gen, err := h.services.Banner.GetGeneration(ctx, input.ID)
	if err != nil {
		h.logger.Error("generation lookup failed", "id", input.ID, "error", err)
		return nil, err
	}
	if gen == nil {
		return nil, huma.Error404NotFound("generation not found")
	}
	if !gen.ShareToGallery && (gen.UserID == "" || gen.UserID != getUserID(ctx)) {
		return nil, huma.Error404NotFound("generation not found")
	}

	out := &GetGenerationOutput{}
	out.Body.generationItem = toGenerationItems([]*models.Generation{gen})[0]
	out.Body.ImageDataURL = gen.ImageDataURL
	out.Body.ImagePrompt = gen.ImagePrompt
	out.Body.Analysis = gen.AnalysisJSON
	return out, nil
}

// ListGalleryOutput wraps a page of publicly shared generations.
type ListGalleryOutput struct {
	Body struct {
		Generations []generationItem `json:"generations"`
	}
}

// ListGallery returns publicly shared generations, newest first.
func (h *Handlers) ListGallery(ctx context.Context, input *ListGenerationsInput) (*ListGalleryOutput, error) {
	gens, err := h.services.Banner.ListGallery(ctx, input.Limit, input.Offset)
	if err != nil {
		h.logger.Error("gallery listing failed", "error", err)
		return nil, err
	}

	out := &ListGalleryOutput{}
	out.Body.Generations = toGenerationItems(gens)
	return out, nil
}
