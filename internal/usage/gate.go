package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/models"
	"github.com/doya-app/banner-api/internal/repository"
)

// Decision is the gate's verdict for one generation request. The gate runs
// before the page fetch and before any paid API call; a rejected request
// must cost nothing.
type Decision struct {
	Allowed   bool
	Plan      string
	Limit     int // 0 when unlimited
	Used      int // count after a successful reserve
	Unlimited bool

	// Reserved is true when quota was already charged to the database;
	// the caller refunds it if generation fails.
	Reserved bool

	// ErrorCode and Message are set on rejection.
	ErrorCode string
	Message   string
}

// Summary converts the decision into the response-facing usage block.
func (d *Decision) Summary() *models.UsageSummary {
	if d.Unlimited {
		return &models.UsageSummary{Plan: d.Plan, Unlimited: true}
	}
	remaining := d.Limit - d.Used
	if remaining < 0 {
		remaining = 0
	}
	return &models.UsageSummary{
		Plan:             d.Plan,
		MonthlyLimit:     d.Limit,
		MonthlyUsed:      d.Used,
		MonthlyRemaining: remaining,
	}
}

// Gate decides whether a generation batch may proceed.
type Gate struct {
	subs     repository.SubscriptionRepository
	disabled bool
	logger   *slog.Logger
	now      func() time.Time
}

// NewGate creates a Gate. disabled short-circuits every check to allowed,
// for local development.
func NewGate(subs repository.SubscriptionRepository, disabled bool, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{subs: subs, disabled: disabled, logger: logger, now: time.Now}
}

// CheckGuest gates a guest request against the cookie counter. Pure: the
// caller increments and rewrites the cookie after a successful batch.
func (g *Gate) CheckGuest(guest GuestUsage, count int) *Decision {
	limits := constants.GetPlanLimits(constants.PlanGuest)
	if g.disabled {
		return &Decision{Allowed: true, Plan: constants.PlanGuest, Unlimited: true}
	}
	if guest.Count+count > limits.MonthlyGenerations {
		return rejected(constants.PlanGuest, limits.MonthlyGenerations, guest.Count)
	}
	return &Decision{
		Allowed: true,
		Plan:    constants.PlanGuest,
		Limit:   limits.MonthlyGenerations,
		Used:    guest.Count + count,
	}
}

// CheckUser gates a logged-in request. Quota is reserved atomically: the
// conditional update both checks and increments, so concurrent requests
// cannot overshoot the limit together. Returns an error only on unexpected
// database failure.
func (g *Gate) CheckUser(ctx context.Context, userID string, count int) (*Decision, error) {
	sub, err := g.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := g.now()
	if sub == nil {
		sub = g.createSubscription(ctx, userID, now)
	}

	plan := sub.Plan
	limits := constants.GetPlanLimits(plan)

	if g.disabled || limits.MonthlyGenerations == 0 || sub.InFreeHour(now) {
		return &Decision{Allowed: true, Plan: plan, Unlimited: true}, nil
	}

	used := sub.MonthlyUsage
	if sub.NeedsMonthlyReset(now) {
		// The conditional charge below reads the stored counter, so the
		// reset has to land first. A failed write costs one stale month
		// for this user, not the request.
		if err := g.subs.ResetMonthlyUsage(ctx, userID, now); err != nil {
			g.logger.Warn("monthly usage reset failed", "user_id", userID, "error", err)
		} else {
			used = 0
		}
	}

	if used+count > limits.MonthlyGenerations {
		return rejected(plan, limits.MonthlyGenerations, used), nil
	}

	ok, err := g.subs.TryCharge(ctx, userID, count, limits.MonthlyGenerations)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a concurrent request, or the async reset has
		// not landed yet; surface the same quota rejection either way.
		return rejected(plan, limits.MonthlyGenerations, used), nil
	}

	return &Decision{
		Allowed:  true,
		Plan:     plan,
		Limit:    limits.MonthlyGenerations,
		Used:     used + count,
		Reserved: true,
	}, nil
}

// PlanFor resolves the user's plan, creating the subscription row on first
// use so the free hour starts counting.
func (g *Gate) PlanFor(ctx context.Context, userID string) (string, error) {
	sub, err := g.subs.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		sub = g.createSubscription(ctx, userID, g.now())
	}
	return sub.Plan, nil
}

// ChargeUnlimited records usage for free-hour and limits-disabled requests.
// Best-effort: bookkeeping, not gating.
func (g *Gate) ChargeUnlimited(ctx context.Context, userID string, count int) {
	if err := g.subs.Charge(ctx, userID, count); err != nil {
		g.logger.Warn("usage charge failed", "user_id", userID, "error", err)
	}
}

// Refund returns reserved quota after a failed generation. Best-effort.
func (g *Gate) Refund(ctx context.Context, userID string, count int) {
	if err := g.subs.Charge(ctx, userID, -count); err != nil {
		g.logger.Warn("usage refund failed", "user_id", userID, "error", err)
	}
}

func (g *Gate) createSubscription(ctx context.Context, userID string, now time.Time) *models.ServiceSubscription {
	sub := &models.ServiceSubscription{
		ID:             ulid.Make().String(),
		UserID:         userID,
		Plan:           constants.PlanFree,
		LastUsageReset: now,
		FirstLoginAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := g.subs.Create(ctx, sub); err != nil {
		// A concurrent request may have created the row; re-read, and fall
		// back to the in-memory default if that fails too.
		if existing, rerr := g.subs.GetByUserID(ctx, userID); rerr == nil && existing != nil {
			return existing
		}
		g.logger.Warn("subscription create failed", "user_id", userID, "error", err)
	}
	return sub
}

func rejected(plan string, limit, used int) *Decision {
	return &Decision{
		Plan:      plan,
		Limit:     limit,
		Used:      used,
		ErrorCode: constants.ErrorCodeMonthlyLimit,
		Message:   constants.MsgMonthlyLimitReached,
	}
}
