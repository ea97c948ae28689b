package service

import (
	"context"
	"testing"
	"time"

	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/usage"
)

func TestGuestSummary(t *testing.T) {
	svc := NewUsageService(newMemorySubs(), false, nil)

	s := svc.GuestSummary(usage.GuestUsage{Date: "2025-01", Count: 2})
	if s.Plan != constants.PlanGuest || s.MonthlyUsed != 2 || s.MonthlyRemaining != 1 {
		t.Errorf("summary = %+v", s)
	}

	// Over-limit cookie never reports negative remaining.
	s = svc.GuestSummary(usage.GuestUsage{Date: "2025-01", Count: 9})
	if s.MonthlyRemaining != 0 {
		t.Errorf("remaining = %d, want 0", s.MonthlyRemaining)
	}
}

func TestUserSummaryNoRow(t *testing.T) {
	svc := NewUsageService(newMemorySubs(), false, nil)

	s, err := svc.UserSummary(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	if s.Plan != constants.PlanFree || s.MonthlyUsed != 0 || s.MonthlyRemaining != 5 {
		t.Errorf("summary = %+v", s)
	}
}

func TestUserSummaryMonthlyResetDisplay(t *testing.T) {
	subs := newMemorySubs()
	subs.subs["u1"] = proSubscription(42)
	subs.subs["u1"].LastUsageReset = time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	svc := NewUsageService(subs, false, nil)
	svc.now = func() time.Time { return time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC) }

	s, err := svc.UserSummary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	// Last month's counter reads as zero even before the reset write lands.
	if s.MonthlyUsed != 0 || s.MonthlyRemaining != 100 {
		t.Errorf("summary = %+v", s)
	}
}

func TestUserSummaryFreeHour(t *testing.T) {
	subs := newMemorySubs()
	sub := proSubscription(42)
	sub.FirstLoginAt = time.Now().Add(-10 * time.Minute)
	subs.subs["u1"] = sub

	svc := NewUsageService(subs, false, nil)
	s, err := svc.UserSummary(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	if !s.Unlimited {
		t.Errorf("free hour should read unlimited, got %+v", s)
	}
}
