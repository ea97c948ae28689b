// Package constants defines centralized configuration for plan limits,
// rate limits, and user-facing messages. Change values here to update
// limits across the entire application.
package constants

import "time"

// Plan names
const (
	PlanGuest = "guest"
	PlanFree  = "free"
	PlanPro   = "pro"
)

// PlanLimits defines the numeric limits for a plan.
type PlanLimits struct {
	// DisplayName is the user-facing name for this plan.
	DisplayName string
	// MonthlyGenerations is the max banner generations per calendar month
	// (Japan Standard Time). 0 = unlimited.
	MonthlyGenerations int
	// MaxBatchCount is the max images per request.
	MaxBatchCount int
	// CustomSizeAllowed controls whether the plan may request a non-default
	// banner size. Non-privileged plans are pinned to DefaultBannerSize.
	CustomSizeAllowed bool
	// RequestsPerMinute is the API rate limit (0 = unlimited).
	RequestsPerMinute int
}

// Plans defines limits for each plan. To change plan limits, modify this map.
var Plans = map[string]PlanLimits{
	PlanGuest: {
		DisplayName:        "ゲスト",
		MonthlyGenerations: 3,
		MaxBatchCount:      3,
		CustomSizeAllowed:  false,
		RequestsPerMinute:  10,
	},
	PlanFree: {
		DisplayName:        "フリー",
		MonthlyGenerations: 5,
		MaxBatchCount:      3,
		CustomSizeAllowed:  false,
		RequestsPerMinute:  20,
	},
	PlanPro: {
		DisplayName:        "プロ",
		MonthlyGenerations: 100,
		MaxBatchCount:      10,
		CustomSizeAllowed:  true,
		RequestsPerMinute:  60,
	},
}

// GetPlanLimits returns the limits for a plan, defaulting to guest limits
// for unknown plan names.
func GetPlanLimits(plan string) PlanLimits {
	if limits, ok := Plans[plan]; ok {
		return limits
	}
	return Plans[PlanGuest]
}

// Banner sizing
const (
	// DefaultBannerSize is the pinned size for guest/free generations.
	DefaultBannerSize = "1080x1080"
	// MinBannerDimension and MaxBannerDimension bound custom sizes.
	MinBannerDimension = 100
	MaxBannerDimension = 4096
)

// Cache lifetimes for the per-hostname visual analysis caches.
const (
	PaletteCacheTTL      = 6 * time.Hour
	VisualReportCacheTTL = 2 * time.Hour
)

// FreeHourDuration is the window after first login during which plan
// limits are bypassed entirely.
const FreeHourDuration = time.Hour

// GuestUsageCookieName stores a guest's monthly generation count.
const GuestUsageCookieName = "doya_banner_guest_usage"

// GuestUsageCookieMaxAge bounds how long the guest cookie survives.
const GuestUsageCookieMaxAge = 48 * time.Hour

// Request handling
const (
	// DefaultRequestTimeout is the budget for ordinary API requests.
	DefaultRequestTimeout = 30 * time.Second
	// GenerationRequestTimeout covers the full banner pipeline
	// (page fetch + headless render + two LLM calls).
	GenerationRequestTimeout = 180 * time.Second
	// GlobalIPRateLimitPerMinute is the fallback rate limit by IP.
	GlobalIPRateLimitPerMinute = 100
	// ModelFallbackDelay is the pause before trying the next model after a
	// transient failure.
	ModelFallbackDelay = 700 * time.Millisecond
)

// ErrorCodeMonthlyLimit is the machine-readable code returned with 429
// responses when a monthly generation limit is reached.
const ErrorCodeMonthlyLimit = "MONTHLY_LIMIT_REACHED"

// User-facing messages (Japanese, shown directly in the UI).
const (
	MsgMonthlyLimitReached = "今月の生成回数の上限に達しました。プランをアップグレードすると続けてご利用いただけます。"
	MsgInvalidURL          = "URLの形式が正しくありません。http:// または https:// で始まるURLを指定してください。"
	MsgPageUnreachable     = "指定されたページを取得できませんでした。URLをご確認ください。"
	MsgInvalidSize         = "サイズの指定が正しくありません。100〜4096pxの範囲で「幅x高さ」の形式で指定してください。"
	MsgGenerationFailed    = "バナーの生成に失敗しました。時間をおいて再度お試しください。"
	MsgNotConfigured       = "この機能は現在ご利用いただけません。（APIキー未設定）"
)

// JST is Japan Standard Time, the timezone for monthly usage resets.
var JST = time.FixedZone("Asia/Tokyo", 9*60*60)
