package visual

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doya-app/banner-api/internal/scrape"
)

// maxImageBytes bounds per-image downloads during dominant-color extraction.
const maxImageBytes = 8 << 20

// ImageColorExtractor fetches representative images and extracts one
// dominant color each.
type ImageColorExtractor struct {
	client  *http.Client
	timeout time.Duration
}

// NewImageColorExtractor creates an extractor with a per-image fetch timeout.
func NewImageColorExtractor(timeout time.Duration) *ImageColorExtractor {
	return &ImageColorExtractor{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// DominantColors fetches each URL concurrently and returns the dominant
// colors of the ones that could be decoded, in input order. Per-image
// failures are skipped, never propagated.
func (e *ImageColorExtractor) DominantColors(ctx context.Context, urls []string) []string {
	if len(urls) == 0 {
		return nil
	}

	results := make([]string, len(urls))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, u := range urls {
		g.Go(func() error {
			hex, err := e.dominantColor(ctx, u)
			if err != nil {
				return nil // skip, keep the batch going
			}
			mu.Lock()
			results[i] = hex
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for _, hex := range results {
		if hex != "" {
			out = append(out, hex)
		}
	}
	return out
}

func (e *ImageColorExtractor) dominantColor(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", err
	}
	return DominantColor(img), nil
}

// DominantColor returns the image's highest-area non-neutral histogram
// color, falling back to the top bucket and finally to the channel mean.
func DominantColor(img image.Image) string {
	ranked := HistogramColors(img)
	for _, c := range ranked {
		if !scrape.IsNearNeutralHex(c.Hex) {
			return c.Hex
		}
	}
	if len(ranked) > 0 {
		return ranked[0].Hex
	}
	return channelMean(img)
}

// channelMean averages a sparse sample of pixels. Last-resort fallback for
// degenerate images.
func channelMean(img image.Image) string {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return ""
	}
	var rSum, gSum, bSum, n uint64
	stepX, stepY := max(1, w/32), max(1, h/32)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			rSum += uint64(r >> 8)
			gSum += uint64(g >> 8)
			bSum += uint64(b >> 8)
			n++
		}
	}
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("#%02X%02X%02X", rSum/n, gSum/n, bSum/n)
}
