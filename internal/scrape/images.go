package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxImageCandidates = 6

// ExtractImageCandidates collects representative image URLs from the page:
// og:image first, then large-looking icons, then ordinary <img> sources.
// Relative URLs are resolved against base; unresolvable ones are dropped.
func ExtractImageCandidates(html, base string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		resolved := resolveImageURL(base, raw)
		if resolved == "" || seen[resolved] || len(out) >= maxImageCandidates {
			return
		}
		seen[resolved] = true
		out = append(out, resolved)
	}

	doc.Find(`meta[property="og:image"], meta[name="twitter:image"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		add(content)
	})
	doc.Find(`link[rel="apple-touch-icon"], link[rel="icon"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(href)
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		add(src)
	})
	return out
}

// ExtractLikelyHeroImages returns images that look like a page's hero or
// keyvisual: og:image plus <img> tags whose attributes suggest it.
func ExtractLikelyHeroImages(html, base string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		resolved := resolveImageURL(base, raw)
		if resolved == "" || seen[resolved] || len(out) >= maxImageCandidates {
			return
		}
		seen[resolved] = true
		out = append(out, resolved)
	}

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		add(content)
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		class, _ := s.Attr("class")
		hint := strings.ToLower(src + " " + alt + " " + class)
		if containsAny(hint, "hero", "keyvisual", "key-visual", "kv", "mainvisual", "main-visual", "banner", "cover") {
			add(src)
		}
	})
	return out
}

// ExtractProductLikeImages returns <img> tags whose alt/class/src suggest a
// product or item photo, excluding SVGs and icon/logo-looking URLs.
func ExtractProductLikeImages(html, base string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		class, _ := s.Attr("class")

		lower := strings.ToLower(src)
		if strings.Contains(lower, ".svg") || containsAny(lower, "icon", "logo", "favicon", "sprite") {
			return
		}
		hint := strings.ToLower(src + " " + alt + " " + class)
		if !containsAny(hint, "product", "item", "goods", "商品", "service", "menu") {
			return
		}

		resolved := resolveImageURL(base, src)
		if resolved == "" || seen[resolved] || len(out) >= maxImageCandidates {
			return
		}
		seen[resolved] = true
		out = append(out, resolved)
	})
	return out
}

// resolveImageURL resolves raw against base and keeps only http(s) results.
// Fails closed: anything malformed yields "".
func resolveImageURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
