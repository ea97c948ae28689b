package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/llm"
	"github.com/doya-app/banner-api/internal/models"
	"github.com/doya-app/banner-api/internal/prompt"
	"github.com/doya-app/banner-api/internal/repository"
	"github.com/doya-app/banner-api/internal/scrape"
	"github.com/doya-app/banner-api/internal/usage"
	"github.com/doya-app/banner-api/internal/visual"
)

// htmlFetcher fetches the target page.
type htmlFetcher interface {
	FetchHTML(ctx context.Context, target string) (string, error)
}

// pageAnalyzer renders the target page headlessly and reports its visual
// makeup. Nil when headless analysis is disabled.
type pageAnalyzer interface {
	Analyze(ctx context.Context, target string) *visual.Report
	CachedPalette(host string) ([]string, bool)
}

// imageColorSource extracts dominant colors from representative images.
type imageColorSource interface {
	DominantColors(ctx context.Context, urls []string) []string
}

// generator is the LLM surface the pipeline needs. Nil when no API key is
// configured.
type generator interface {
	GenerateJSON(ctx context.Context, p string) (*llm.JSONResult, error)
	GenerateImages(ctx context.Context, imagePrompt, size string, brandColors []string, refs []llm.ReferenceImage, count int) (*llm.ImageResult, error)
}

// partialBatchWarning is surfaced when fewer banners than requested came
// back but at least one succeeded.
const partialBatchWarning = "一部のバナー生成に失敗したため、枚数が要求より少なくなっています。"

// BannerService orchestrates the full URL-to-banner pipeline.
type BannerService struct {
	fetcher     htmlFetcher
	analyzer    pageAnalyzer
	imageColors imageColorSource
	llm         generator
	gate        *usage.Gate
	generations repository.GenerationRepository
	storage     *StorageService
	logger      *slog.Logger
}

// NewBannerService creates the banner pipeline service. analyzer and gen
// may be nil (headless disabled / no API key).
func NewBannerService(
	fetcher htmlFetcher,
	analyzer pageAnalyzer,
	imageColors imageColorSource,
	gen generator,
	gate *usage.Gate,
	generations repository.GenerationRepository,
	storage *StorageService,
	logger *slog.Logger,
) *BannerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BannerService{
		fetcher:     fetcher,
		analyzer:    analyzer,
		imageColors: imageColors,
		llm:         gen,
		gate:        gate,
		generations: generations,
		storage:     storage,
		logger:      logger,
	}
}

// GenerateRequest is one banner batch request, guest or logged-in.
type GenerateRequest struct {
	TargetURL string
	Size      string
	Count     int
	Language  string

	// Industry and Purpose override the page-based inference when set.
	Industry string
	Purpose  string

	ToneKeywords string
	AvoidText    string
	MustInclude  string

	// BrandColors override extracted colors entirely when set.
	BrandColors []string

	LogoImage       *llm.ReferenceImage
	BaseImage       *llm.ReferenceImage
	PersonImages    []llm.ReferenceImage
	ReferenceImages []llm.ReferenceImage

	ShareToGallery bool
	ShareProfile   bool

	// UserID is empty for guests; Guest carries the cookie counter then.
	UserID string
	Guest  usage.GuestUsage
}

// GenerateResult is the successful outcome of one batch.
type GenerateResult struct {
	BatchID  string
	Banners  []llm.GeneratedImage
	Analysis string
	// AnalysisJSON carries optional structured keys (key_message, cta,
	// tone) when the model produced them.
	AnalysisJSON   map[string]any
	ImagePrompt    string
	NegativePrompt string
	UsedModel      string
	Usage          *models.UsageSummary
	Warning        string

	// Decision lets the HTTP layer rewrite the guest cookie after a
	// charged guest generation.
	Decision *usage.Decision
}

// GenerateFromURL runs the pipeline: validate, gate, extract, analyze,
// assemble the prompt, call the model twice, persist. Nothing that costs
// money happens before the gate passes; reserved quota is refunded when a
// later stage fails.
func (s *BannerService) GenerateFromURL(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if !scrape.IsValidHTTPURL(req.TargetURL) {
		return nil, ErrInvalidURL
	}
	if s.llm == nil {
		return nil, ErrNotConfigured
	}

	plan := constants.PlanGuest
	if req.UserID != "" {
		p, err := s.gate.PlanFor(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve plan: %w", err)
		}
		plan = p
	}
	limits := constants.GetPlanLimits(plan)

	size, err := usage.ValidateSize(req.Size, limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}
	count := usage.ClampCount(req.Count, limits)

	decision, err := s.checkQuota(ctx, req, count)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &QuotaError{Decision: decision}
	}

	result, err := s.generate(ctx, req, decision, size, count)
	if err != nil {
		if decision.Reserved {
			s.gate.Refund(context.WithoutCancel(ctx), req.UserID, count)
		}
		return nil, err
	}

	s.settleCharge(context.WithoutCancel(ctx), req, decision, len(result.Banners))
	s.persistBatch(context.WithoutCancel(ctx), req, result, size)

	result.Usage = decision.Summary()
	result.Decision = decision
	return result, nil
}

func (s *BannerService) checkQuota(ctx context.Context, req *GenerateRequest, count int) (*usage.Decision, error) {
	if req.UserID == "" {
		return s.gate.CheckGuest(req.Guest, count), nil
	}
	d, err := s.gate.CheckUser(ctx, req.UserID, count)
	if err != nil {
		return nil, fmt.Errorf("quota check failed: %w", err)
	}
	return d, nil
}

// generate covers the stages that may fail after quota was reserved.
func (s *BannerService) generate(ctx context.Context, req *GenerateRequest, decision *usage.Decision, size string, count int) (*GenerateResult, error) {
	html, err := s.fetcher.FetchHTML(ctx, req.TargetURL)
	if err != nil {
		s.logger.Info("page fetch failed", "url", req.TargetURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPageUnreachable, err)
	}

	signals := s.collectSignals(ctx, req.TargetURL, html)

	brandColors := req.BrandColors
	if len(brandColors) == 0 {
		brandColors = signals.palette
	}

	in := prompt.Input{
		TargetURL:    req.TargetURL,
		Size:         size,
		Language:     req.Language,
		HasLogo:      req.LogoImage != nil,
		PersonImages: len(req.PersonImages),
		BrandColors:  brandColors,
		ToneKeywords: req.ToneKeywords,
		AvoidText:    req.AvoidText,
		MustInclude:  req.MustInclude,
		Industry:     req.Industry,
		Purpose:      req.Purpose,
		Meta:         signals.meta,
		Inferred:     signals.inferred,
		ColorHints:   signals.colorHints,
		VisualHints:  signals.visualHints,
		PageText:     signals.text,
	}

	jsonResult, err := s.llm.GenerateJSON(ctx, prompt.Build(in))
	if err != nil {
		s.logger.Error("prompt generation failed", "url", req.TargetURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	imagePrompt := jsonResult.ImagePrompt()

	refs := s.referenceImages(req)
	images, err := s.llm.GenerateImages(ctx, imagePrompt, size, brandColors, refs, count)
	if err != nil {
		s.logger.Error("image generation failed", "url", req.TargetURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	result := &GenerateResult{
		BatchID:        ulid.Make().String(),
		Banners:        images.Images,
		Analysis:       jsonResult.Analysis(),
		AnalysisJSON:   analysisKeys(jsonResult),
		ImagePrompt:    imagePrompt,
		NegativePrompt: jsonResult.NegativePrompt(),
		UsedModel:      images.Model,
	}
	if len(result.Banners) < count {
		result.Warning = partialBatchWarning
	}
	return result, nil
}

// pageSignals is everything extracted from the target page before the
// prompt is assembled.
type pageSignals struct {
	meta        scrape.Meta
	text        string
	inferred    scrape.Inferred
	palette     []string
	colorHints  string
	visualHints string
}

// collectSignals runs static extraction and headless analysis in parallel.
// Both sides fail soft: a page that renders nothing still yields whatever
// the static pass found.
func (s *BannerService) collectSignals(ctx context.Context, target, html string) *pageSignals {
	signals := &pageSignals{}

	var (
		report      *visual.Report
		imageColors []string
		cssPalette  []string
		hintColors  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		signals.meta = scrape.ExtractMeta(html)
		signals.text = scrape.StripHTMLToText(html)
		signals.inferred = scrape.InferBannerInfo(target, signals.meta, signals.text)
		hintColors = scrape.ExtractColorHints(html)
		cssPalette = scrape.ExtractPaletteFromCSS(html)
		return nil
	})
	g.Go(func() error {
		if s.analyzer == nil {
			return nil
		}
		report = s.analyzer.Analyze(gctx, target)
		return nil
	})
	_ = g.Wait()

	candidates := candidateImages(report, html, target)
	if s.imageColors != nil && len(candidates) > 0 {
		imageColors = s.imageColors.DominantColors(ctx, candidates)
	}

	headless := headlessPalette(report, s.analyzer, target)
	signals.palette = visual.FusePalettes(headless, cssPalette, imageColors)
	signals.colorHints = colorHintText(hintColors, cssPalette, imageColors)
	signals.visualHints = visualHintText(report)
	return signals
}

// candidateImages prefers the on-screen images the renderer saw; static
// extraction fills in when headless analysis produced nothing, hero imagery
// first, then product shots, then anything representative.
func candidateImages(report *visual.Report, html, base string) []string {
	if report != nil && len(report.CandidateImages) > 0 {
		return report.CandidateImages
	}
	urls := scrape.ExtractLikelyHeroImages(html, base)
	if len(urls) == 0 {
		urls = scrape.ExtractProductLikeImages(html, base)
	}
	if len(urls) == 0 {
		urls = scrape.ExtractImageCandidates(html, base)
	}
	return urls
}

func headlessPalette(report *visual.Report, analyzer pageAnalyzer, target string) []string {
	if report != nil {
		if p := report.Palette(); len(p) > 0 {
			return p
		}
	}
	// Headless failed or is disabled; a previous run for the same host may
	// still be cached.
	if analyzer != nil {
		if u, err := url.Parse(target); err == nil {
			if p, ok := analyzer.CachedPalette(u.Hostname()); ok {
				return p
			}
		}
	}
	return nil
}

func colorHintText(hints, css, images []string) string {
	var b strings.Builder
	if len(hints) > 0 {
		fmt.Fprintf(&b, "メタ情報・頻出色: %s\n", strings.Join(hints, ", "))
	}
	if len(css) > 0 {
		fmt.Fprintf(&b, "CSSブランド変数: %s\n", strings.Join(css, ", "))
	}
	if len(images) > 0 {
		fmt.Fprintf(&b, "主要画像の支配色: %s\n", strings.Join(images, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func visualHintText(report *visual.Report) string {
	if report == nil {
		return ""
	}
	var parts []string
	if s := report.ColorSummary(); s != "" {
		parts = append(parts, s)
	}
	if s := report.ImageSummary(); s != "" {
		parts = append(parts, s)
	}
	if report.PeopleVerdict != "" {
		parts = append(parts, "人物写真の使用: "+report.PeopleVerdict)
	}
	return strings.Join(parts, "\n")
}

func (s *BannerService) referenceImages(req *GenerateRequest) []llm.ReferenceImage {
	var refs []llm.ReferenceImage
	if req.BaseImage != nil {
		refs = append(refs, *req.BaseImage)
	}
	if req.LogoImage != nil {
		refs = append(refs, *req.LogoImage)
	}
	refs = append(refs, req.PersonImages...)
	refs = append(refs, req.ReferenceImages...)
	return refs
}

// analysisKeys pulls optional structured analysis keys from the model
// response. The strict schema only mandates two keys; relaxed responses
// sometimes volunteer more.
func analysisKeys(r *llm.JSONResult) map[string]any {
	out := map[string]any{}
	for _, key := range []string{"key_message", "cta", "tone"} {
		if v, ok := r.Data[key]; ok {
			out[key] = v
		}
	}
	if nested, ok := r.Data["analysis_json"].(map[string]any); ok {
		for k, v := range nested {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ListUserGenerations returns a user's generation history, newest first.
func (s *BannerService) ListUserGenerations(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error) {
	return s.generations.GetByUserID(ctx, userID, normalizeLimit(limit), maxInt(offset, 0))
}

// GetGeneration returns one generation row, nil when unknown.
func (s *BannerService) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	return s.generations.GetByID(ctx, id)
}

// ListGallery returns publicly shared generations, newest first.
func (s *BannerService) ListGallery(ctx context.Context, limit, offset int) ([]*models.Generation, error) {
	return s.generations.ListGallery(ctx, normalizeLimit(limit), maxInt(offset, 0))
}

func normalizeLimit(limit int) int {
	if limit < 1 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

// settleCharge books usage that the gate did not already reserve. Guest
// charges live in the cookie and are written by the HTTP layer from the
// decision; unlimited paths get best-effort bookkeeping.
func (s *BannerService) settleCharge(ctx context.Context, req *GenerateRequest, decision *usage.Decision, produced int) {
	if req.UserID == "" || produced == 0 {
		return
	}
	if decision.Unlimited {
		s.gate.ChargeUnlimited(ctx, req.UserID, produced)
	}
}

// persistBatch records generation rows and archives images. Best-effort:
// failures are logged, the response already succeeded.
func (s *BannerService) persistBatch(ctx context.Context, req *GenerateRequest, result *GenerateResult, size string) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	for _, banner := range result.Banners {
		storageKey := ""
		if s.storage != nil && s.storage.IsEnabled() {
			key, err := s.storage.ArchiveBanner(ctx, result.BatchID, banner.PatternLetter, banner.DataURL)
			if err != nil {
				s.logger.Warn("banner archive failed",
					"batch_id", result.BatchID, "pattern", banner.PatternLetter, "error", err)
			} else {
				storageKey = key
			}
		}

		gen := &models.Generation{
			ID:             ulid.Make().String(),
			UserID:         req.UserID,
			BatchID:        result.BatchID,
			PatternLetter:  banner.PatternLetter,
			SourceURL:      req.TargetURL,
			Size:           size,
			ImagePrompt:    result.ImagePrompt,
			AnalysisJSON:   result.Analysis,
			ImageDataURL:   banner.DataURL,
			StorageKey:     storageKey,
			UsedModel:      result.UsedModel,
			ShareToGallery: req.ShareToGallery,
			ShareProfile:   req.ShareProfile,
			CreatedAt:      now,
		}
		if err := s.generations.Create(ctx, gen); err != nil {
			s.logger.Warn("generation record failed",
				"batch_id", result.BatchID, "pattern", banner.PatternLetter, "error", err)
		}
	}
}
