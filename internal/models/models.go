// Package models defines the domain models for the application.
// Note: account identity (OAuth, sessions) is handled by the auth provider;
// UserID fields reference its user IDs. Guests have no rows here at all —
// their usage lives in a signed cookie.
package models

import (
	"time"

	"github.com/doya-app/banner-api/internal/constants"
)

// ServiceSubscription tracks a logged-in user's plan and monthly usage for
// the banner generation service. One row per user.
type ServiceSubscription struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Plan           string    `json:"plan"` // guest/free/pro
	MonthlyUsage   int       `json:"monthly_usage"`
	LastUsageReset time.Time `json:"last_usage_reset"`
	FirstLoginAt   time.Time `json:"first_login_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NeedsMonthlyReset reports whether the stored reset timestamp falls in a
// calendar month (Japan Standard Time) before now's month.
func (s *ServiceSubscription) NeedsMonthlyReset(now time.Time) bool {
	return s.LastUsageReset.In(constants.JST).Format("2006-01") !=
		now.In(constants.JST).Format("2006-01")
}

// InFreeHour reports whether the user is still inside the unlimited window
// that starts at first login.
func (s *ServiceSubscription) InFreeHour(now time.Time) bool {
	if s.FirstLoginAt.IsZero() {
		return false
	}
	return now.Before(s.FirstLoginAt.Add(constants.FreeHourDuration))
}

// Generation is one generated banner image. Rows are created after a
// successful generation and never mutated.
type Generation struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"` // empty for guests
	BatchID        string    `json:"batch_id"`
	PatternLetter  string    `json:"pattern_letter"` // A, B, C... within a batch
	SourceURL      string    `json:"source_url"`
	Size           string    `json:"size"` // "WxH"
	ImagePrompt    string    `json:"image_prompt"`
	AnalysisJSON   string    `json:"analysis_json,omitempty"` // key_message/cta/tone
	ImageDataURL   string    `json:"image_data_url,omitempty"`
	StorageKey     string    `json:"storage_key,omitempty"` // object key when archived
	UsedModel      string    `json:"used_model,omitempty"`
	ShareToGallery bool      `json:"share_to_gallery"`
	ShareProfile   bool      `json:"share_profile"`
	CreatedAt      time.Time `json:"created_at"`
}

// UsageSummary is the quota snapshot returned with generation responses and
// from the usage endpoint.
type UsageSummary struct {
	Plan             string `json:"plan"`
	MonthlyLimit     int    `json:"monthlyLimit"`
	MonthlyUsed      int    `json:"monthlyUsed"`
	MonthlyRemaining int    `json:"monthlyRemaining"`
	Unlimited        bool   `json:"unlimited,omitempty"`
}
