package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/doya-app/banner-api/internal/constants"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// PlanLimits maps plan names to requests per minute. 0 = unlimited.
	PlanLimits map[string]int
	// IPRequestsPerMinute is the fallback limit for guests, keyed by IP.
	IPRequestsPerMinute int
}

// DefaultRateLimitConfig returns defaults from the constants package.
func DefaultRateLimitConfig() RateLimitConfig {
	planLimits := make(map[string]int)
	for plan, limits := range constants.Plans {
		planLimits[plan] = limits.RequestsPerMinute
	}
	return RateLimitConfig{
		PlanLimits:          planLimits,
		IPRequestsPerMinute: constants.GlobalIPRateLimitPerMinute,
	}
}

// RateLimitByPlan returns a middleware that rate limits authenticated
// users by user ID at their plan's rate, and guests by IP. Apply after
// OptionalAuth.
func RateLimitByPlan(cfg RateLimitConfig) func(http.Handler) http.Handler {
	planLimiters := make(map[string]*httprate.RateLimiter)
	for plan, limit := range cfg.PlanLimits {
		if limit > 0 {
			planLimiters[plan] = httprate.NewRateLimiter(
				limit,
				time.Minute,
				httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
					claims := GetUserClaims(r.Context())
					if claims == nil || claims.UserID == "" {
						return httprate.KeyByIP(r)
					}
					return "user:" + claims.UserID, nil
				}),
			)
		}
	}

	fallbackLimiter := httprate.NewRateLimiter(
		cfg.IPRequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plan := constants.PlanGuest
			if claims := GetUserClaims(r.Context()); claims != nil && claims.Plan != "" {
				plan = claims.Plan
			}

			if limit, ok := cfg.PlanLimits[plan]; ok && limit == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if limiter, ok := planLimiters[plan]; ok {
				limiter.Handler(next).ServeHTTP(w, r)
				return
			}
			fallbackLimiter.Handler(next).ServeHTTP(w, r)
		})
	}
}
