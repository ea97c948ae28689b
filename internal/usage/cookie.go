// Package usage enforces per-plan generation quotas: a signed cookie for
// guests, a database counter for logged-in users, monthly resets on Japan
// Standard Time, and size/batch clamping.
package usage

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/crypto"
)

// GuestUsage is the client-side monthly counter stored in a signed cookie.
type GuestUsage struct {
	Date  string `json:"date"` // YYYY-MM in JST
	Count int    `json:"count"`
}

// CurrentMonth returns now's calendar month in JST, the reset boundary for
// all quotas.
func CurrentMonth(now time.Time) string {
	return now.In(constants.JST).Format("2006-01")
}

// ReadGuestCookie recovers the guest counter from the request. A missing,
// tampered, or unparseable cookie yields a fresh zero counter, as does a
// counter from a previous month.
func ReadGuestCookie(r *http.Request, signer *crypto.Signer, now time.Time) GuestUsage {
	cookie, err := r.Cookie(constants.GuestUsageCookieName)
	if err != nil {
		return GuestUsage{Date: CurrentMonth(now), Count: 0}
	}
	return DecodeGuestValue(cookie.Value, signer, now)
}

// DecodeGuestValue recovers the guest counter from a raw cookie value, with
// the same fail-to-fresh behavior as ReadGuestCookie.
func DecodeGuestValue(value string, signer *crypto.Signer, now time.Time) GuestUsage {
	fresh := GuestUsage{Date: CurrentMonth(now), Count: 0}

	payload, err := signer.Verify(value)
	if err != nil {
		return fresh
	}
	var usage GuestUsage
	if err := json.Unmarshal([]byte(payload), &usage); err != nil {
		return fresh
	}
	if usage.Date != fresh.Date || usage.Count < 0 {
		return fresh
	}
	return usage
}

// WriteGuestCookie stores the counter back on the response, HTTP-only and
// SameSite=Lax so ordinary navigation keeps it while cross-site scripts
// cannot read it.
func WriteGuestCookie(w http.ResponseWriter, signer *crypto.Signer, usage GuestUsage) {
	payload, err := json.Marshal(usage)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     constants.GuestUsageCookieName,
		Value:    signer.Sign(string(payload)),
		Path:     "/",
		MaxAge:   int(constants.GuestUsageCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
