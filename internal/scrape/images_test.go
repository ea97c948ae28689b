package scrape

import (
	"testing"
)

const imagesFixture = `<html><head>
	<meta property="og:image" content="/assets/og.png">
	<link rel="apple-touch-icon" href="https://cdn.example.com/icon-180.png">
</head><body>
	<img src="/img/hero-main.jpg" class="hero" alt="メインビジュアル">
	<img src="/img/product-01.jpg" alt="商品写真">
	<img src="/img/logo.svg" alt="logo">
	<img src="javascript:bad()" alt="">
</body></html>`

func TestExtractImageCandidates(t *testing.T) {
	got := ExtractImageCandidates(imagesFixture, "https://example.com/page")

	want := "https://example.com/assets/og.png"
	if len(got) == 0 || got[0] != want {
		t.Fatalf("og:image should come first resolved, got %v", got)
	}
	for _, u := range got {
		if u == "" {
			t.Error("empty candidate URL")
		}
	}
	for _, u := range got {
		if u == "javascript:bad()" {
			t.Errorf("non-http URL should be dropped: %v", got)
		}
	}
	if len(got) > 6 {
		t.Errorf("got %d candidates, want at most 6", len(got))
	}
}

func TestExtractLikelyHeroImages(t *testing.T) {
	got := ExtractLikelyHeroImages(imagesFixture, "https://example.com/")

	found := false
	for _, u := range got {
		if u == "https://example.com/img/hero-main.jpg" {
			found = true
		}
	}
	if !found {
		t.Errorf("hero-classed image should be detected: %v", got)
	}
}

func TestExtractProductLikeImages(t *testing.T) {
	got := ExtractProductLikeImages(imagesFixture, "https://example.com/")

	if len(got) != 1 || got[0] != "https://example.com/img/product-01.jpg" {
		t.Errorf("got %v, want only the product image", got)
	}
}

func TestResolveImageURLFailsClosed(t *testing.T) {
	tests := []struct {
		base, raw string
	}{
		{"https://example.com", ""},
		{"https://example.com", "data:image/png;base64,xxxx"},
		{"https://example.com", "javascript:x"},
		{"://bad-base", "/img/a.png"},
	}
	for _, tt := range tests {
		if got := resolveImageURL(tt.base, tt.raw); got != "" {
			t.Errorf("resolveImageURL(%q, %q) = %q, want empty", tt.base, tt.raw, got)
		}
	}
}
