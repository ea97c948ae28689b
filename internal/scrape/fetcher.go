// Package scrape retrieves a target page's HTML and derives side-effect-free
// signals from it: metadata, plain text, color hints, image candidates, and a
// keyword-based industry/objective/target guess. Everything here degrades to
// empty results rather than failing the request.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxHTMLBytes bounds how much of a page we read. Pages past this size are
// truncated, not rejected.
const maxHTMLBytes = 3 << 20

// userAgent is a browser-like UA so sites serve us their real markup.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// IsValidHTTPURL reports whether raw is an absolute http or https URL.
func IsValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetcher retrieves page HTML with a hard timeout.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher creates a Fetcher. timeout bounds the whole fetch including
// redirects and body read.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// FetchHTML retrieves the page at target. A non-2xx status is an error;
// callers treat any error as "page unreachable".
func (f *Fetcher) FetchHTML(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return "", fmt.Errorf("reading page body: %w", err)
	}

	html := string(body)
	if isBlockPage(resp.Header, html) {
		return "", fmt.Errorf("fetching page: blocked by bot protection")
	}
	return html, nil
}
