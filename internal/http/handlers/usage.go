package handlers

import (
	"context"
	"time"

	"github.com/doya-app/banner-api/internal/models"
	"github.com/doya-app/banner-api/internal/usage"
)

// GetUsageInput reads the optional guest cookie; logged-in users are
// identified by the auth middleware instead.
type GetUsageInput struct {
	GuestCookie string `cookie:"doya_banner_guest_usage" doc:"Signed guest usage counter" required:"false"`
}

// GetUsageOutput is the usage endpoint response.
type GetUsageOutput struct {
	Body models.UsageSummary
}

// GetUsage returns the caller's quota standing: the database counter for
// logged-in users, the signed cookie for guests.
func (h *Handlers) GetUsage(ctx context.Context, input *GetUsageInput) (*GetUsageOutput, error) {
	if userID := getUserID(ctx); userID != "" {
		summary, err := h.services.Usage.UserSummary(ctx, userID)
		if err != nil {
			h.logger.Error("usage summary failed", "user_id", userID, "error", err)
			return nil, err
		}
		return &GetUsageOutput{Body: *summary}, nil
	}

	guest := usage.DecodeGuestValue(input.GuestCookie, h.services.CookieSigner, time.Now())
	return &GetUsageOutput{Body: *h.services.Usage.GuestSummary(guest)}, nil
}
