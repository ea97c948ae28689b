// Package repository defines repository interfaces for data access.
// Note: account identity (OAuth, sessions) is handled by the auth provider;
// only service subscriptions and generation history live here.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doya-app/banner-api/internal/models"
)

// SubscriptionRepository defines methods for service subscription data access.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.ServiceSubscription) error
	GetByUserID(ctx context.Context, userID string) (*models.ServiceSubscription, error)
	// ResetMonthlyUsage zeroes the usage counter and stamps a new reset time.
	ResetMonthlyUsage(ctx context.Context, userID string, resetAt time.Time) error
	// TryCharge atomically adds count to monthly_usage only if the result
	// stays within limit. Returns false when the conditional update matched
	// no row (quota exhausted or unknown user).
	TryCharge(ctx context.Context, userID string, count, limit int) (bool, error)
	// Charge unconditionally adds count to monthly_usage. Used for
	// free-hour and limits-disabled paths where no cap applies.
	Charge(ctx context.Context, userID string, count int) error
	UpdatePlan(ctx context.Context, userID, plan string) error
}

// GenerationRepository defines methods for generation history data access.
type GenerationRepository interface {
	Create(ctx context.Context, gen *models.Generation) error
	GetByID(ctx context.Context, id string) (*models.Generation, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error)
	GetByBatchID(ctx context.Context, batchID string) ([]*models.Generation, error)
	// ListGallery returns publicly shared generations, newest first.
	ListGallery(ctx context.Context, limit, offset int) ([]*models.Generation, error)
	// DeleteOlderThan prunes unshared guest generations past a retention
	// window and returns the deleted IDs.
	DeleteOlderThan(ctx context.Context, before time.Time) ([]string, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	Subscription SubscriptionRepository
	Generation   GenerationRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Subscription: NewSQLiteSubscriptionRepository(db),
		Generation:   NewSQLiteGenerationRepository(db),
	}
}
