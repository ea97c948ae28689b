package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsBlockPage(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		body    string
		want    bool
	}{
		{"plain page", nil, "<html><body>商品一覧とキャンペーン情報</body></html>", false},
		{"cloudflare interstitial", nil, "<html><title>Just a moment...</title></html>", true},
		{"recaptcha widget", nil, `<div class="g-recaptcha" data-sitekey="x"></div>`, true},
		{"turnstile widget", nil, `<div class="cf-turnstile"></div>`, true},
		{"denied message", nil, "<p>Access to this page has been denied.</p>", true},
		{"cf-mitigated header", http.Header{"Cf-Mitigated": []string{"challenge"}}, "<html></html>", true},
		{"case insensitive", nil, "<title>JUST A MOMENT...</title>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBlockPage(tt.headers, tt.body); got != tt.want {
				t.Errorf("isBlockPage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetchHTMLRejectsBlockPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><title>Just a moment...</title><body></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	if _, err := f.FetchHTML(context.Background(), srv.URL); err == nil {
		t.Error("expected error for challenge page served with 200")
	}
}
