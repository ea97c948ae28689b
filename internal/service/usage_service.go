package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/models"
	"github.com/doya-app/banner-api/internal/repository"
	"github.com/doya-app/banner-api/internal/usage"
)

// UsageService reports quota standing for the usage endpoint.
type UsageService struct {
	subs     repository.SubscriptionRepository
	disabled bool
	logger   *slog.Logger
	now      func() time.Time
}

// NewUsageService creates a new usage service.
func NewUsageService(subs repository.SubscriptionRepository, disabled bool, logger *slog.Logger) *UsageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageService{subs: subs, disabled: disabled, logger: logger, now: time.Now}
}

// GuestSummary builds the usage block from the cookie counter.
func (s *UsageService) GuestSummary(guest usage.GuestUsage) *models.UsageSummary {
	limits := constants.GetPlanLimits(constants.PlanGuest)
	if s.disabled {
		return &models.UsageSummary{Plan: constants.PlanGuest, Unlimited: true}
	}
	remaining := limits.MonthlyGenerations - guest.Count
	if remaining < 0 {
		remaining = 0
	}
	return &models.UsageSummary{
		Plan:             constants.PlanGuest,
		MonthlyLimit:     limits.MonthlyGenerations,
		MonthlyUsed:      guest.Count,
		MonthlyRemaining: remaining,
	}
}

// UserSummary builds the usage block for a logged-in user. A user without
// a subscription row yet reads as a fresh free-plan account; a counter
// from a previous JST month reads as zero.
func (s *UsageService) UserSummary(ctx context.Context, userID string) (*models.UsageSummary, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan := constants.PlanFree
	used := 0
	var inFreeHour bool
	if sub != nil {
		plan = sub.Plan
		used = sub.MonthlyUsage
		now := s.now()
		if sub.NeedsMonthlyReset(now) {
			used = 0
		}
		inFreeHour = sub.InFreeHour(now)
	}

	limits := constants.GetPlanLimits(plan)
	if s.disabled || limits.MonthlyGenerations == 0 || inFreeHour {
		return &models.UsageSummary{Plan: plan, Unlimited: true}, nil
	}

	remaining := limits.MonthlyGenerations - used
	if remaining < 0 {
		remaining = 0
	}
	return &models.UsageSummary{
		Plan:             plan,
		MonthlyLimit:     limits.MonthlyGenerations,
		MonthlyUsed:      used,
		MonthlyRemaining: remaining,
	}, nil
}
