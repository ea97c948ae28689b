package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/scrape"
)

// settleDelay lets CSS transitions and late layout finish before sampling.
const settleDelay = 500 * time.Millisecond

// Analyzer renders pages headlessly and produces visual brand reports.
// Browsers are created per call and always closed; the caches make repeat
// lookups for the same hostname cheap instead.
type Analyzer struct {
	navTimeout time.Duration
	chromePath string
	people     *PeopleDetector
	logger     *slog.Logger

	reportCache  *TTLCache[*Report]
	paletteCache *TTLCache[[]string]
}

// NewAnalyzer creates an Analyzer. people may be nil, in which case the
// verdict is always 不明.
func NewAnalyzer(navTimeout time.Duration, chromePath string, people *PeopleDetector, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		navTimeout:   navTimeout,
		chromePath:   chromePath,
		people:       people,
		logger:       logger,
		reportCache:  NewTTLCache[*Report](constants.VisualReportCacheTTL),
		paletteCache: NewTTLCache[[]string](constants.PaletteCacheTTL),
	}
}

// CachedPalette returns the longer-lived palette for a hostname, if any.
func (a *Analyzer) CachedPalette(host string) ([]string, bool) {
	return a.paletteCache.Get(host)
}

// Analyze renders the page and returns its visual report. Never returns an
// error: any failure yields an empty report with verdict 不明.
func (a *Analyzer) Analyze(ctx context.Context, target string) *Report {
	host := hostnameOf(target)
	if host != "" {
		if cached, ok := a.reportCache.Get(host); ok {
			return cached
		}
	}

	report, err := a.analyze(ctx, target)
	if err != nil {
		a.logger.Warn("headless analysis failed", "url", target, "error", err)
		return &Report{PeopleVerdict: PeopleUnknown}
	}

	if host != "" && report.MainColor != "" {
		a.reportCache.Set(host, report)
		a.paletteCache.Set(host, report.Palette())
	}
	return report
}

// pageMetrics mirrors the JSON built by the in-page collection script.
type pageMetrics struct {
	ViewportWidth  int     `json:"vw"`
	ViewportHeight int     `json:"vh"`
	SVGCount       int     `json:"svgCount"`
	RasterCount    int     `json:"rasterCount"`
	ImageAreaRatio float64 `json:"imageAreaRatio"`
	BgAreaRatio    float64 `json:"bgAreaRatio"`
	Candidates     []string `json:"candidates"`
	StyleColors    []struct {
		Color  string  `json:"color"`
		Weight float64 `json:"weight"`
	} `json:"styleColors"`
}

func (a *Analyzer) analyze(ctx context.Context, target string) (report *Report, err error) {
	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("window-size", "1280,900").
		Set("lang", "ja-JP,ja")
	if a.chromePath != "" {
		l = l.Bin(a.chromePath)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, err
	}
	defer func() {
		_ = browser.Close()
		l.Cleanup()
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	// Block fonts and media for speed; images stay enabled so photo-heavy
	// layouts are represented in the screenshot.
	router := page.HijackRequests()
	blockType := func(t proto.NetworkResourceType) {
		_ = router.Add("*", t, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	blockType(proto.NetworkResourceTypeFont)
	blockType(proto.NetworkResourceTypeMedia)
	go router.Run()
	defer router.Stop()

	page = page.Timeout(a.navTimeout)
	if err := page.Navigate(target); err != nil {
		return nil, err
	}
	// Prefer a network-quiet page; fall back to load-complete when the page
	// never goes idle (analytics beacons, long polling).
	if err := page.WaitIdle(a.navTimeout / 2); err != nil {
		if err := page.WaitLoad(); err != nil {
			return nil, err
		}
	}
	time.Sleep(settleDelay)

	metrics, err := collectPageMetrics(page)
	if err != nil {
		return nil, err
	}

	screenshotColors := a.screenshotHistogram(page)
	styleColors := styleColorRatios(metrics)

	combined := metrics.ImageAreaRatio + metrics.BgAreaRatio
	colors := ChooseSignal(styleColors, screenshotColors, combined)
	main, subs := SelectPalette(colors)

	report = &Report{
		ViewportWidth:            metrics.ViewportWidth,
		ViewportHeight:           metrics.ViewportHeight,
		Colors:                   colors,
		MainColor:                main,
		SubColors:                subs,
		ImageAreaRatio:           metrics.ImageAreaRatio,
		BackgroundImageAreaRatio: metrics.BgAreaRatio,
		ImageKind:                classifyImageKind(metrics.SVGCount, metrics.RasterCount),
		CandidateImages:          metrics.Candidates,
		PeopleVerdict:            PeopleUnknown,
	}

	if a.people != nil {
		report.PeopleVerdict = a.people.Detect(ctx, metrics.Candidates)
	}
	return report, nil
}

// screenshotHistogram captures a full-page screenshot and histograms it.
// Failures degrade to nil so computed-style colors can still carry the
// report.
func (a *Analyzer) screenshotHistogram(page *rod.Page) []ColorRatio {
	shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		a.logger.Debug("screenshot failed", "error", err)
		return nil
	}
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		a.logger.Debug("screenshot decode failed", "error", err)
		return nil
	}
	return HistogramColors(img)
}

func collectPageMetrics(page *rod.Page) (*pageMetrics, error) {
	res, err := page.Eval(pageMetricsJS)
	if err != nil {
		return nil, err
	}
	var metrics pageMetrics
	if err := json.Unmarshal([]byte(res.Value.Str()), &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// styleColorRatios converts area-weighted computed-style colors into ranked
// ColorRatio entries. Colors arrive canvas-normalized; non-hex values
// (rgba with alpha) are dropped.
func styleColorRatios(m *pageMetrics) []ColorRatio {
	total := 0.0
	for _, sc := range m.StyleColors {
		total += sc.Weight
	}
	if total == 0 {
		return nil
	}
	out := make([]ColorRatio, 0, len(m.StyleColors))
	for _, sc := range m.StyleColors {
		hex := scrape.NormalizeHex(sc.Color)
		if hex == "" {
			continue
		}
		out = append(out, ColorRatio{Hex: hex, Ratio: sc.Weight / total})
	}
	return out
}

// classifyImageKind compares SVG and raster counts with a small margin.
func classifyImageKind(svgCount, rasterCount int) string {
	switch {
	case svgCount == 0 && rasterCount == 0:
		return ""
	case svgCount > rasterCount+2:
		return ImageKindIllustration
	case rasterCount > svgCount+2:
		return ImageKindPhoto
	default:
		return ImageKindMixed
	}
}

func hostnameOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// pageMetricsJS runs in the page and returns a JSON string. Computed-style
// colors are normalized through a canvas fillStyle round-trip; each
// element's contribution is capped so one huge element cannot dominate.
const pageMetricsJS = `() => {
	const vw = window.innerWidth, vh = window.innerHeight;
	const viewportArea = Math.max(1, vw * vh);
	const maxWeight = 0.25;

	const canvas = document.createElement('canvas');
	const cctx = canvas.getContext('2d');
	const normColor = (c) => {
		if (!c) return '';
		try { cctx.fillStyle = c; } catch (e) { return ''; }
		const v = cctx.fillStyle;
		if (typeof v !== 'string' || v[0] !== '#') return '';
		return v;
	};
	const visibleArea = (el) => {
		const r = el.getBoundingClientRect();
		const w = Math.max(0, Math.min(r.right, vw) - Math.max(r.left, 0));
		const h = Math.max(0, Math.min(r.bottom, vh) - Math.max(r.top, 0));
		return w * h;
	};

	let svgCount = 0, rasterCount = 0, imageArea = 0;
	const candidates = [];
	for (const img of document.querySelectorAll('img')) {
		const src = img.currentSrc || img.src || '';
		if (!src) continue;
		if (src.toLowerCase().includes('.svg')) { svgCount++; } else { rasterCount++; }
		const area = visibleArea(img);
		imageArea += area;
		if (area > 0 && /^https?:/.test(src)) candidates.push({ src, area });
	}
	svgCount += document.querySelectorAll('svg').length;
	candidates.sort((a, b) => b.area - a.area);

	let bgArea = 0;
	const containers = document.querySelectorAll('body, header, main, section, div');
	let scanned = 0;
	for (const el of containers) {
		if (scanned++ >= 200) break;
		const bg = getComputedStyle(el).backgroundImage;
		if (bg && bg !== 'none' && bg.includes('url(')) bgArea += visibleArea(el);
	}

	const weights = new Map();
	const addColor = (c, area) => {
		const hex = normColor(c);
		if (!hex) return;
		const w = Math.min(area / viewportArea, maxWeight);
		if (w <= 0) return;
		weights.set(hex, (weights.get(hex) || 0) + w);
	};
	const bodyStyle = getComputedStyle(document.body);
	addColor(bodyStyle.backgroundColor, viewportArea);
	addColor(bodyStyle.color, viewportArea * 0.1);
	const interactive = document.querySelectorAll(
		'button, a, input[type=submit], [class*=btn], [class*=button], [class*=cta], header, nav');
	let seen = 0;
	for (const el of interactive) {
		if (seen++ >= 150) break;
		const area = visibleArea(el);
		if (area <= 0) continue;
		const st = getComputedStyle(el);
		addColor(st.backgroundColor, area);
		addColor(st.borderColor, area * 0.2);
		addColor(st.color, area * 0.3);
	}
	const styleColors = [...weights.entries()]
		.map(([color, weight]) => ({ color, weight }))
		.sort((a, b) => b.weight - a.weight);

	return JSON.stringify({
		vw, vh, svgCount, rasterCount,
		imageAreaRatio: Math.min(1, imageArea / viewportArea),
		bgAreaRatio: Math.min(1, bgArea / viewportArea),
		candidates: candidates.slice(0, 6).map(c => c.src),
		styleColors: styleColors.slice(0, 24),
	});
}`
