package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appconfig "github.com/doya-app/banner-api/internal/config"
	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/crypto"
	"github.com/doya-app/banner-api/internal/llm"
	"github.com/doya-app/banner-api/internal/models"
	"github.com/doya-app/banner-api/internal/service"
	"github.com/doya-app/banner-api/internal/usage"
	"github.com/doya-app/banner-api/internal/visual"
)

type stubFetcher struct{ html string }

func (f *stubFetcher) FetchHTML(_ context.Context, _ string) (string, error) {
	return f.html, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, _ string) *visual.Report {
	return &visual.Report{PeopleVerdict: visual.PeopleUnknown}
}

func (stubAnalyzer) CachedPalette(_ string) ([]string, bool) { return nil, false }

type stubImageColors struct{}

func (stubImageColors) DominantColors(_ context.Context, _ []string) []string { return nil }

type stubGenerator struct{}

func (stubGenerator) GenerateJSON(_ context.Context, _ string) (*llm.JSONResult, error) {
	return &llm.JSONResult{Data: map[string]any{
		"analysis":                "分析結果",
		"image_generation_prompt": "blue banner",
		"negative_prompt":         "low quality, blurry text",
	}, Model: "text-model"}, nil
}

func (stubGenerator) GenerateImages(_ context.Context, _, _ string, _ []string, _ []llm.ReferenceImage, count int) (*llm.ImageResult, error) {
	images := make([]llm.GeneratedImage, count)
	for i := range images {
		images[i] = llm.GeneratedImage{
			DataURL:       "data:image/png;base64,aGk=",
			PatternLetter: string(rune('A' + i)),
		}
	}
	return &llm.ImageResult{Images: images, Model: "image-model"}, nil
}

type stubSubs struct{}

func (stubSubs) Create(_ context.Context, _ *models.ServiceSubscription) error { return nil }
func (stubSubs) GetByUserID(_ context.Context, _ string) (*models.ServiceSubscription, error) {
	return nil, nil
}
func (stubSubs) ResetMonthlyUsage(_ context.Context, _ string, _ time.Time) error { return nil }
func (stubSubs) TryCharge(_ context.Context, _ string, _, _ int) (bool, error)    { return true, nil }
func (stubSubs) Charge(_ context.Context, _ string, _ int) error                  { return nil }
func (stubSubs) UpdatePlan(_ context.Context, _, _ string) error                  { return nil }

type stubGenerations struct{ rows []*models.Generation }

func (s *stubGenerations) Create(_ context.Context, g *models.Generation) error {
	s.rows = append(s.rows, g)
	return nil
}
func (s *stubGenerations) GetByID(_ context.Context, _ string) (*models.Generation, error) {
	return nil, nil
}
func (s *stubGenerations) GetByUserID(_ context.Context, _ string, _, _ int) ([]*models.Generation, error) {
	return nil, nil
}
func (s *stubGenerations) GetByBatchID(_ context.Context, _ string) ([]*models.Generation, error) {
	return nil, nil
}
func (s *stubGenerations) ListGallery(_ context.Context, _, _ int) ([]*models.Generation, error) {
	return nil, nil
}
func (s *stubGenerations) DeleteOlderThan(_ context.Context, _ time.Time) ([]string, error) {
	return nil, nil
}

func newTestHandlers(t *testing.T, configured bool) (*Handlers, *crypto.Signer) {
	t.Helper()
	signer, err := crypto.NewSigner(bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.Default()
	gate := usage.NewGate(stubSubs{}, false, logger)
	storage, _ := service.NewStorageService(&appconfig.Config{}, logger)

	var gen *stubGenerator
	var banner *service.BannerService
	if configured {
		gen = &stubGenerator{}
		banner = service.NewBannerService(
			&stubFetcher{html: "<html><head><title>テスト</title></head><body>本文</body></html>"},
			stubAnalyzer{}, stubImageColors{}, gen, gate, &stubGenerations{}, storage, logger)
	} else {
		banner = service.NewBannerService(
			&stubFetcher{html: "<html></html>"},
			stubAnalyzer{}, stubImageColors{}, nil, gate, &stubGenerations{}, storage, logger)
	}

	services := &service.Services{
		Banner:       banner,
		Usage:        service.NewUsageService(stubSubs{}, false, logger),
		Storage:      storage,
		CookieSigner: signer,
	}
	cfg := &appconfig.Config{UpgradeURL: "https://doya.app/pricing"}
	return New(cfg, services, nil, logger), signer
}

func postBanner(t *testing.T, h *Handlers, body map[string]any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/banner/from-url", bytes.NewReader(payload))
	if cookie != nil {
		r.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.GenerateBannerFromURL(rec, r)
	return rec
}

func TestGenerateBannerGuestSuccess(t *testing.T) {
	h, _ := newTestHandlers(t, true)

	rec := postBanner(t, h, map[string]any{"target_url": "https://example.com", "count": 2}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Banners []struct {
			Pattern string `json:"pattern"`
			DataURL string `json:"dataUrl"`
		} `json:"banners"`
		BannerAnalysis string               `json:"bannerAnalysis"`
		ImagePrompt    string               `json:"imagePrompt"`
		NegativePrompt string               `json:"negativePrompt"`
		UsedModel      string               `json:"usedModel"`
		Usage          *models.UsageSummary `json:"usage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if len(resp.Banners) != 2 || resp.Banners[0].Pattern != "A" || resp.Banners[1].Pattern != "B" {
		t.Errorf("banners = %+v", resp.Banners)
	}
	if resp.UsedModel != "image-model" || resp.ImagePrompt != "blue banner" {
		t.Errorf("model = %q prompt = %q", resp.UsedModel, resp.ImagePrompt)
	}
	if resp.NegativePrompt != "low quality, blurry text" {
		t.Errorf("negativePrompt = %q, want the model's value passed through", resp.NegativePrompt)
	}
	if resp.Usage == nil || resp.Usage.MonthlyUsed != 2 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	// The guest counter comes back as a signed cookie.
	cookieHeader := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookieHeader, constants.GuestUsageCookieName) {
		t.Errorf("Set-Cookie = %q, want guest usage cookie", cookieHeader)
	}
}

func TestGenerateBannerGuestQuotaExceeded(t *testing.T) {
	h, signer := newTestHandlers(t, true)

	payload, _ := json.Marshal(usage.GuestUsage{Date: usage.CurrentMonth(time.Now()), Count: 3})
	cookie := &http.Cookie{Name: constants.GuestUsageCookieName, Value: signer.Sign(string(payload))}

	rec := postBanner(t, h, map[string]any{"target_url": "https://example.com", "count": 1}, cookie)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var resp struct {
		Error      string               `json:"error"`
		Code       string               `json:"code"`
		Usage      *models.UsageSummary `json:"usage"`
		UpgradeURL string               `json:"upgradeUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != constants.ErrorCodeMonthlyLimit {
		t.Errorf("code = %q", resp.Code)
	}
	if resp.Error != constants.MsgMonthlyLimitReached {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.UpgradeURL != "https://doya.app/pricing" {
		t.Errorf("upgradeUrl = %q", resp.UpgradeURL)
	}
	if resp.Usage == nil || resp.Usage.MonthlyUsed != 3 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestGenerateBannerInvalidURL(t *testing.T) {
	h, _ := newTestHandlers(t, true)

	rec := postBanner(t, h, map[string]any{"target_url": "not a url"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), constants.MsgInvalidURL) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestGenerateBannerNotConfigured(t *testing.T) {
	h, _ := newTestHandlers(t, false)

	rec := postBanner(t, h, map[string]any{"target_url": "https://example.com"}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), constants.MsgNotConfigured) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMergeBrandColors(t *testing.T) {
	got := mergeBrandColors("#ff0000", "0f0", []string{"#FF0000", "bogus", "#0000FF"})
	want := []string{"#FF0000", "#00FF00", "#0000FF"}
	if len(got) != len(want) {
		t.Fatalf("mergeBrandColors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mergeBrandColors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDecodeImage(t *testing.T) {
	if img := decodeImage("data:image/png;base64,aGVsbG8="); img == nil || img.MIMEType != "image/png" || string(img.Data) != "hello" {
		t.Errorf("decodeImage valid = %+v", img)
	}

	for _, raw := range []string{
		"",
		"https://example.com/x.png",
		"data:image/png;base64,!!!",
		"data:text/plain;base64,aGk=",
		"data:image/png,plain",
	} {
		if img := decodeImage(raw); img != nil {
			t.Errorf("decodeImage(%q) = %+v, want nil", raw, img)
		}
	}
}

func TestDecodeImagesCap(t *testing.T) {
	urls := []string{
		"data:image/png;base64,YQ==",
		"data:image/png;base64,Yg==",
		"data:image/png;base64,Yw==",
	}
	if got := decodeImages(urls, 1); len(got) != 1 {
		t.Errorf("decodeImages cap = %d images, want 1", len(got))
	}
}
