package scrape

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxIntermediateColors = 6
	maxPaletteColors      = 3
)

var (
	hexLiteralRe = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)

	// Brand-ish CSS custom property declarations, e.g. --primary: #1A73E8;
	cssVarRe = regexp.MustCompile(`--(?:primary|brand|accent|main|cta|theme|key)[\w-]*\s*:\s*(#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3}))`)
)

// NormalizeHex canonicalizes a 3- or 6-digit hex color to uppercase #RRGGBB.
// Returns "" for anything else.
func NormalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return ""
	}
	body := s[1:]
	switch len(body) {
	case 3:
		var b strings.Builder
		b.WriteByte('#')
		for i := 0; i < 3; i++ {
			b.WriteByte(body[i])
			b.WriteByte(body[i])
		}
		body = b.String()[1:]
	case 6:
	default:
		return ""
	}
	for _, c := range body {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return ""
		}
	}
	return "#" + strings.ToUpper(body)
}

// ParseHex returns the RGB channels of a normalized or normalizable hex
// color. ok is false for invalid input.
func ParseHex(s string) (r, g, b int, ok bool) {
	hex := NormalizeHex(s)
	if hex == "" {
		return 0, 0, 0, false
	}
	rv, _ := strconv.ParseInt(hex[1:3], 16, 0)
	gv, _ := strconv.ParseInt(hex[3:5], 16, 0)
	bv, _ := strconv.ParseInt(hex[5:7], 16, 0)
	return int(rv), int(gv), int(bv), true
}

// RGBDistance is the Euclidean distance between two colors in RGB space.
// Invalid input yields 0.
func RGBDistance(a, b string) float64 {
	ar, ag, ab, ok := ParseHex(a)
	if !ok {
		return 0
	}
	br, bg, bb, ok := ParseHex(b)
	if !ok {
		return 0
	}
	dr, dg, db := float64(ar-br), float64(ag-bg), float64(ab-bb)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// IsNearNeutralHex reports whether a color is white/black/gray-ish: a small
// max-min channel spread, or extreme brightness either way. Neutrals are
// deprioritized when ranking brand colors.
func IsNearNeutralHex(s string) bool {
	r, g, b, ok := ParseHex(s)
	if !ok {
		return true
	}
	max, min := r, r
	for _, c := range []int{g, b} {
		if c > max {
			max = c
		}
		if c < min {
			min = c
		}
	}
	if max-min < 10 {
		return true
	}
	brightness := (r + g + b) / 3
	return brightness >= 245 || brightness <= 16
}

// ExtractColorHints scans the HTML for declared brand colors: theme-color
// and tile-color meta tags first, then raw hex literals ranked by frequency
// with near-neutrals pushed to the back. At most 6 entries.
func ExtractColorHints(html string) []string {
	var hints []string
	seen := make(map[string]bool)
	add := func(hex string) {
		if hex != "" && !seen[hex] {
			seen[hex] = true
			hints = append(hints, hex)
		}
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		for _, sel := range []string{`meta[name="theme-color"]`, `meta[name="msapplication-TileColor"]`} {
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				content, _ := s.Attr("content")
				add(NormalizeHex(content))
			})
		}
	}

	for _, hex := range rankHexByFrequency(html) {
		if len(hints) >= maxIntermediateColors {
			break
		}
		add(hex)
	}
	if len(hints) > maxIntermediateColors {
		hints = hints[:maxIntermediateColors]
	}
	return hints
}

// ExtractPaletteFromCSS pulls colors out of brand-looking CSS custom
// property declarations, falling back to frequency-ranked literals. At most
// 3 entries, no duplicates, neutrals last.
func ExtractPaletteFromCSS(html string) []string {
	var palette []string
	seen := make(map[string]bool)
	add := func(hex string) {
		if hex != "" && !seen[hex] && len(palette) < maxPaletteColors {
			seen[hex] = true
			palette = append(palette, hex)
		}
	}

	var vars []string
	for _, m := range cssVarRe.FindAllStringSubmatch(html, -1) {
		if hex := NormalizeHex(m[1]); hex != "" {
			vars = append(vars, hex)
		}
	}
	// Named variables are a stronger signal; non-neutral ones first.
	for _, hex := range vars {
		if !IsNearNeutralHex(hex) {
			add(hex)
		}
	}
	for _, hex := range vars {
		add(hex)
	}

	for _, hex := range rankHexByFrequency(html) {
		add(hex)
	}
	return palette
}

// rankHexByFrequency counts every hex literal in the document and returns
// distinct colors ordered by count, non-neutral colors before neutral ones.
func rankHexByFrequency(html string) []string {
	counts := make(map[string]int)
	for _, raw := range hexLiteralRe.FindAllString(html, -1) {
		if hex := NormalizeHex(raw); hex != "" {
			counts[hex]++
		}
	}

	colors := make([]string, 0, len(counts))
	for hex := range counts {
		colors = append(colors, hex)
	}
	sort.Slice(colors, func(i, j int) bool {
		ni, nj := IsNearNeutralHex(colors[i]), IsNearNeutralHex(colors[j])
		if ni != nj {
			return !ni
		}
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		return colors[i] < colors[j]
	})
	return colors
}
