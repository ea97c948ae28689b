package scrape

import (
	"strings"
	"testing"
)

func TestExtractMetaPrefersOpenGraph(t *testing.T) {
	html := `<html><head>
		<title>Plain Title</title>
		<meta property="og:title" content="OG Title">
		<meta name="description" content="plain description">
		<meta property="og:description" content="og description">
	</head><body></body></html>`

	meta := ExtractMeta(html)
	if meta.Title != "OG Title" {
		t.Errorf("Title = %q, want OG Title", meta.Title)
	}
	if meta.Description != "og description" {
		t.Errorf("Description = %q, want og description", meta.Description)
	}
}

func TestExtractMetaFallbacks(t *testing.T) {
	html := `<html><head>
		<title>  Plain Title  </title>
		<meta name="description" content="plain description">
	</head></html>`

	meta := ExtractMeta(html)
	if meta.Title != "Plain Title" {
		t.Errorf("Title = %q, want Plain Title", meta.Title)
	}
	if meta.Description != "plain description" {
		t.Errorf("Description = %q, want plain description", meta.Description)
	}
}

func TestExtractMetaAbsentTags(t *testing.T) {
	meta := ExtractMeta("<html><body>no head</body></html>")
	if meta.Title != "" || meta.Description != "" {
		t.Errorf("expected empty meta, got %+v", meta)
	}
}

func TestExtractMetaTruncates(t *testing.T) {
	long := strings.Repeat("あ", 500)
	html := `<html><head><title>` + long + `</title>
		<meta name="description" content="` + long + `"></head></html>`

	meta := ExtractMeta(html)
	if n := len([]rune(meta.Title)); n != 200 {
		t.Errorf("title length = %d runes, want 200", n)
	}
	if n := len([]rune(meta.Description)); n != 320 {
		t.Errorf("description length = %d runes, want 320", n)
	}
}
