package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 320
)

// Meta is the page's title and description, Open Graph values preferred.
type Meta struct {
	Title       string
	Description string
}

// ExtractMeta pulls title and description from the HTML. Absent tags yield
// empty strings; values are truncated to keep downstream prompts bounded.
func ExtractMeta(html string) Meta {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Meta{}
	}

	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	desc := metaContent(doc, `meta[property="og:description"]`)
	if desc == "" {
		desc = metaContent(doc, `meta[name="description"]`)
	}

	return Meta{
		Title:       truncateRunes(title, maxTitleLen),
		Description: truncateRunes(desc, maxDescriptionLen),
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// truncateRunes cuts s to at most n runes. Page text is mostly Japanese, so
// byte-based truncation would split characters.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
