package visual

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/doya-app/banner-api/internal/scrape"
)

func TestDominantColorPrefersNonNeutral(t *testing.T) {
	// Mostly white with a saturated blue block: the brand color wins even
	// though white covers more area.
	img := solidImage(100, 100, color.RGBA{B: 0xEE, A: 0xFF}, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, 0.3)

	hex := DominantColor(img)
	if hex == "" {
		t.Fatal("expected a color")
	}
	if hex == "#FFFFFF" {
		t.Error("neutral white should not win over a saturated color")
	}
}

func TestDominantColorAllNeutral(t *testing.T) {
	img := solidImage(10, 10, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, 1)
	if hex := DominantColor(img); hex != "#FFFFFF" {
		t.Errorf("all-white image = %q, want #FFFFFF", hex)
	}
}

func TestDominantColorsFanOut(t *testing.T) {
	blue := solidImage(20, 20, color.RGBA{B: 0xEE, A: 0xFF}, color.RGBA{B: 0xEE, A: 0xFF}, 1)
	var buf bytes.Buffer
	if err := png.Encode(&buf, blue); err != nil {
		t.Fatal(err)
	}
	pngBytes := buf.Bytes()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Write(pngBytes)
		case "/broken.png":
			w.Write([]byte("not an image"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	e := NewImageColorExtractor(5 * time.Second)
	got := e.DominantColors(context.Background(), []string{
		srv.URL + "/ok.png",
		srv.URL + "/broken.png",
		srv.URL + "/missing.png",
	})

	// Failures are skipped, not fatal.
	if len(got) != 1 {
		t.Fatalf("got %v, want exactly one color", got)
	}
	r, g, b, ok := scrape.ParseHex(got[0])
	if !ok || b < 200 || r > 50 || g > 50 {
		t.Errorf("dominant color %q should be blue-ish", got[0])
	}
}

func TestDominantColorsEmptyInput(t *testing.T) {
	e := NewImageColorExtractor(time.Second)
	if got := e.DominantColors(context.Background(), nil); got != nil {
		t.Errorf("nil input should yield nil, got %v", got)
	}
}

func TestChannelMeanEmptyImage(t *testing.T) {
	if got := channelMean(image.NewRGBA(image.Rect(0, 0, 0, 0))); got != "" {
		t.Errorf("empty image mean = %q, want empty", got)
	}
}
