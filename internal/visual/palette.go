package visual

import (
	"github.com/doya-app/banner-api/internal/scrape"
)

const (
	// Pages whose combined image area exceeds this are "photo heavy": their
	// screenshot histogram reflects photo content, not brand color, so the
	// computed-style palette is trusted instead.
	photoHeavyThreshold = 0.28

	// Minimum RGB distance between any two selected palette colors.
	subColorMinDistance = 32.0

	maxSubColors = 3
)

// ChooseSignal picks which color ranking to trust given how photo-heavy the
// page is. Falls back to whichever signal is non-empty.
func ChooseSignal(styleColors, screenshotColors []ColorRatio, imageAreaRatio float64) []ColorRatio {
	preferred, other := screenshotColors, styleColors
	if imageAreaRatio > photoHeavyThreshold {
		preferred, other = styleColors, screenshotColors
	}
	if len(preferred) == 0 {
		return other
	}
	return preferred
}

// SelectPalette picks the main color (highest ratio) and up to 3 sub colors
// from a ranked list. Sub colors must be at least subColorMinDistance away
// from every already-chosen color; non-neutral colors are preferred, with
// neutral ones backfilled (distance rule relaxed) only when fewer than 2
// non-neutral subs were found.
func SelectPalette(ranked []ColorRatio) (main string, subs []string) {
	if len(ranked) == 0 {
		return "", nil
	}
	main = ranked[0].Hex
	chosen := []string{main}

	farEnough := func(hex string) bool {
		for _, c := range chosen {
			if scrape.RGBDistance(hex, c) < subColorMinDistance {
				return false
			}
		}
		return true
	}

	var nonNeutral, neutral []string
	for _, c := range ranked[1:] {
		if scrape.IsNearNeutralHex(c.Hex) {
			neutral = append(neutral, c.Hex)
		} else {
			nonNeutral = append(nonNeutral, c.Hex)
		}
	}

	for _, hex := range nonNeutral {
		if len(subs) >= maxSubColors {
			break
		}
		if farEnough(hex) {
			subs = append(subs, hex)
			chosen = append(chosen, hex)
		}
	}

	if len(subs) < 2 {
		seen := map[string]bool{main: true}
		for _, s := range subs {
			seen[s] = true
		}
		for _, hex := range neutral {
			if len(subs) >= 2 {
				break
			}
			if !seen[hex] {
				seen[hex] = true
				subs = append(subs, hex)
			}
		}
	}
	return main, subs
}

// FusePalettes merges palette candidates in priority order (headless area
// analysis first, then CSS declarations, then image dominant colors) into a
// deduplicated, validated, at-most-3 list.
func FusePalettes(headless, css, images []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, src := range [][]string{headless, css, images} {
		for _, raw := range src {
			hex := scrape.NormalizeHex(raw)
			if hex == "" || seen[hex] {
				continue
			}
			seen[hex] = true
			out = append(out, hex)
			if len(out) >= maxSubColors {
				return out
			}
		}
	}
	return out
}
