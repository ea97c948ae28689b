package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe  = regexp.MustCompile(`[ \t\x{3000}]{2,}`)
)

// StripHTMLToText produces a best-effort plain-text rendering of the page:
// script/style/noscript removed, block elements separated by newlines,
// whitespace collapsed. Not spec-correct HTML handling, and that's fine —
// the output feeds a language model, not a renderer.
func StripHTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript, template, iframe").Remove()

	var b strings.Builder
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		collectText(body, &b)
	})
	if b.Len() == 0 {
		// No body tag in fragment input; fall back to the whole document.
		collectText(doc.Selection, &b)
	}

	text := spaceRunsRe.ReplaceAllString(b.String(), " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "main": true, "aside": true, "nav": true, "ul": true,
	"ol": true, "li": true, "table": true, "tr": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "figure": true, "figcaption": true,
}

func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			b.WriteString(node.Text())
			return
		}
		tag := goquery.NodeName(node)
		if blockTags[tag] {
			b.WriteByte('\n')
		}
		collectText(node, b)
		if blockTags[tag] {
			b.WriteByte('\n')
		}
	})
}
