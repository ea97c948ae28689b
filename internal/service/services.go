package service

import (
	"context"
	"fmt"
	"log/slog"

	appconfig "github.com/doya-app/banner-api/internal/config"
	"github.com/doya-app/banner-api/internal/crypto"
	"github.com/doya-app/banner-api/internal/llm"
	"github.com/doya-app/banner-api/internal/repository"
	"github.com/doya-app/banner-api/internal/scrape"
	"github.com/doya-app/banner-api/internal/usage"
	"github.com/doya-app/banner-api/internal/visual"
)

// Services holds all service instances.
type Services struct {
	Banner  *BannerService
	Usage   *UsageService
	Storage *StorageService

	// CookieSigner signs and verifies the guest usage cookie; the HTTP
	// layer reads and writes the cookie around BannerService calls.
	CookieSigner *crypto.Signer
}

// NewServices creates all service instances.
func NewServices(cfg *appconfig.Config, repos *repository.Repositories, logger *slog.Logger) (*Services, error) {
	signer, err := crypto.NewSigner(cfg.CookieSigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie signer: %w", err)
	}

	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	gate := usage.NewGate(repos.Subscription, cfg.DisableLimits, logger)
	if cfg.DisableLimits {
		logger.Warn("usage limits disabled - every request passes the gate")
	}

	fetcher := scrape.NewFetcher(cfg.PageFetchTimeout)

	// The analyzer is optional: without it banner color comes from static
	// extraction and image dominant colors only.
	var analyzer pageAnalyzer
	if !cfg.DisableHeadless {
		var people *visual.PeopleDetector
		if cfg.VisionEnabled() {
			people = visual.NewPeopleDetector(cfg.VisionAPIKey, cfg.VisionTimeout, logger)
		}
		analyzer = visual.NewAnalyzer(cfg.HeadlessNavTimeout, cfg.ChromePath, people, logger)
	} else {
		logger.Info("headless analysis disabled")
	}

	imageColors := visual.NewImageColorExtractor(cfg.ImageFetchTimeout)

	var gen generator
	if cfg.GenerationEnabled() {
		client, err := llm.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.TextModels, cfg.ImageModels, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		gen = client
	} else {
		logger.Warn("no generative API key configured - banner generation will return 503")
	}

	bannerSvc := NewBannerService(fetcher, analyzer, imageColors, gen, gate,
		repos.Generation, storageSvc, logger)

	return &Services{
		Banner:       bannerSvc,
		Usage:        NewUsageService(repos.Subscription, cfg.DisableLimits, logger),
		Storage:      storageSvc,
		CookieSigner: signer,
	}, nil
}
