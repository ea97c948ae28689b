package scrape

import (
	"net/http"
	"strings"
)

// Challenge pages often come back with a 200 status, so status alone is
// not enough to decide whether we actually got the landing page.
var challengeMarkers = []string{
	"cf-browser-verification",
	"challenge-platform",
	"_cf_chl",
	"checking your browser",
	"just a moment...",
	"attention required! | cloudflare",
	"g-recaptcha",
	"h-captcha",
	"cf-turnstile",
	"captcha-container",
	"please verify you are human",
	"are you a robot",
	"access to this page has been denied",
}

// isBlockPage reports whether the response looks like a bot-protection
// challenge rather than real page content. Callers treat a block page the
// same as a fetch failure.
func isBlockPage(headers http.Header, body string) bool {
	if headers.Get("cf-mitigated") == "challenge" {
		return true
	}

	lower := strings.ToLower(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
