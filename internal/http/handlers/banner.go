package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/llm"
	"github.com/doya-app/banner-api/internal/models"
	"github.com/doya-app/banner-api/internal/scrape"
	"github.com/doya-app/banner-api/internal/service"
	"github.com/doya-app/banner-api/internal/usage"
)

// maxGenerateBodyBytes bounds the request body; uploaded reference images
// arrive inline as data URLs.
const maxGenerateBodyBytes = 24 << 20

// maxPersonImages caps uploaded person photos per request.
const maxPersonImages = 1

type generateBannerRequest struct {
	TargetURL string `json:"target_url"`
	Size      string `json:"size,omitempty"`
	Count     int    `json:"count,omitempty"`
	Language  string `json:"language,omitempty"`

	Industry string `json:"industry,omitempty"`
	Purpose  string `json:"purpose,omitempty"`

	MainColor   string   `json:"main_color,omitempty"`
	SubColor    string   `json:"sub_color,omitempty"`
	BrandColors []string `json:"brand_colors,omitempty"`

	ToneKeywords string `json:"tone_keywords,omitempty"`
	Avoid        string `json:"avoid,omitempty"`
	MustInclude  string `json:"must_include,omitempty"`

	// Images are inline data URLs (data:image/png;base64,...).
	BaseImage       string   `json:"base_image,omitempty"`
	LogoImage       string   `json:"logo_image,omitempty"`
	PersonImages    []string `json:"person_images,omitempty"`
	ReferenceImages []string `json:"reference_images,omitempty"`

	ShareToGallery bool `json:"share_to_gallery,omitempty"`
	ShareProfile   bool `json:"share_profile,omitempty"`
}

type bannerItem struct {
	Pattern string `json:"pattern"`
	DataURL string `json:"dataUrl"`
}

type generateBannerResponse struct {
	Banners          []bannerItem         `json:"banners"`
	BannerAnalysis   string               `json:"bannerAnalysis,omitempty"`
	AnalysisJSON     map[string]any       `json:"analysisJson,omitempty"`
	ImagePrompt      string               `json:"imagePrompt,omitempty"`
	NegativePrompt   string               `json:"negativePrompt,omitempty"`
	UsedModel        string               `json:"usedModel,omitempty"`
	UsedModelDisplay string               `json:"usedModelDisplay,omitempty"`
	Usage            *models.UsageSummary `json:"usage,omitempty"`
	Warning          string               `json:"warning,omitempty"`
}

// GenerateBannerFromURL handles POST /api/v1/banner/from-url. Raw handler:
// the endpoint reads and rewrites the guest usage cookie and returns the
// fixed Japanese error bodies, both outside huma's error model.
func (h *Handlers) GenerateBannerFromURL(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxGenerateBodyBytes)

	var req generateBannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, constants.MsgInvalidURL)
		return
	}

	userID := getUserID(r.Context())
	guest := usage.ReadGuestCookie(r, h.services.CookieSigner, time.Now())

	svcReq := &service.GenerateRequest{
		TargetURL:       req.TargetURL,
		Size:            req.Size,
		Count:           req.Count,
		Language:        req.Language,
		Industry:        req.Industry,
		Purpose:         req.Purpose,
		ToneKeywords:    req.ToneKeywords,
		AvoidText:       req.Avoid,
		MustInclude:     req.MustInclude,
		BrandColors:     mergeBrandColors(req.MainColor, req.SubColor, req.BrandColors),
		BaseImage:       decodeImage(req.BaseImage),
		LogoImage:       decodeImage(req.LogoImage),
		PersonImages:    decodeImages(req.PersonImages, maxPersonImages),
		ReferenceImages: decodeImages(req.ReferenceImages, 3),
		ShareToGallery:  req.ShareToGallery,
		ShareProfile:    req.ShareProfile,
		UserID:          userID,
		Guest:           guest,
	}

	result, err := h.services.Banner.GenerateFromURL(r.Context(), svcReq)
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	// Guests pay through the cookie, written only after a charged batch.
	if userID == "" && result.Decision != nil && !result.Decision.Unlimited {
		usage.WriteGuestCookie(w, h.services.CookieSigner, usage.GuestUsage{
			Date:  usage.CurrentMonth(time.Now()),
			Count: result.Decision.Used,
		})
	}

	resp := &generateBannerResponse{
		Banners:          make([]bannerItem, 0, len(result.Banners)),
		BannerAnalysis:   result.Analysis,
		AnalysisJSON:     result.AnalysisJSON,
		ImagePrompt:      result.ImagePrompt,
		NegativePrompt:   result.NegativePrompt,
		UsedModel:        result.UsedModel,
		UsedModelDisplay: llm.DisplayName(result.UsedModel),
		Usage:            result.Usage,
		Warning:          result.Warning,
	}
	for _, b := range result.Banners {
		resp.Banners = append(resp.Banners, bannerItem{Pattern: b.PatternLetter, DataURL: b.DataURL})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeGenerateError(w http.ResponseWriter, err error) {
	var quotaErr *service.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      quotaErr.Decision.Message,
			"code":       quotaErr.Decision.ErrorCode,
			"usage":      quotaErr.Decision.Summary(),
			"upgradeUrl": h.cfg.UpgradeURL,
		})
	case errors.Is(err, service.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, constants.MsgInvalidURL)
	case errors.Is(err, service.ErrInvalidSize):
		writeError(w, http.StatusBadRequest, constants.MsgInvalidSize)
	case errors.Is(err, service.ErrPageUnreachable):
		writeError(w, http.StatusBadRequest, constants.MsgPageUnreachable)
	case errors.Is(err, service.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, constants.MsgNotConfigured)
	default:
		h.logger.Error("banner generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, constants.MsgGenerationFailed)
	}
}

// mergeBrandColors folds the single main/sub fields and the list into one
// normalized, deduplicated list.
func mergeBrandColors(main, sub string, rest []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, raw := range append([]string{main, sub}, rest...) {
		hex := scrape.NormalizeHex(raw)
		if hex == "" || seen[hex] {
			continue
		}
		seen[hex] = true
		out = append(out, hex)
	}
	return out
}

// decodeImage turns an inline data URL into a reference image. Malformed
// input is dropped rather than failing the request.
func decodeImage(dataURL string) *llm.ReferenceImage {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil
	}
	meta, payload, ok := strings.Cut(dataURL[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil
	}
	mimeType := strings.TrimSuffix(meta, ";base64")
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	return &llm.ReferenceImage{Data: data, MIMEType: mimeType}
}

func decodeImages(dataURLs []string, max int) []llm.ReferenceImage {
	var out []llm.ReferenceImage
	for _, raw := range dataURLs {
		if len(out) >= max {
			break
		}
		if img := decodeImage(raw); img != nil {
			out = append(out, *img)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
