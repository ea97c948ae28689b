package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doya-app/banner-api/internal/models"
)

// SQLiteSubscriptionRepository implements SubscriptionRepository for SQLite.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

// NewSQLiteSubscriptionRepository creates a new SQLite subscription repository.
func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

func (r *SQLiteSubscriptionRepository) Create(ctx context.Context, sub *models.ServiceSubscription) error {
	query := `INSERT INTO service_subscriptions (id, user_id, plan, monthly_usage, last_usage_reset, first_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var firstLogin *string
	if !sub.FirstLoginAt.IsZero() {
		s := sub.FirstLoginAt.UTC().Format(time.RFC3339)
		firstLogin = &s
	}
	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.Plan, sub.MonthlyUsage,
		sub.LastUsageReset.UTC().Format(time.RFC3339), firstLogin,
		sub.CreatedAt.UTC().Format(time.RFC3339), sub.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.ServiceSubscription, error) {
	query := `SELECT id, user_id, plan, monthly_usage, last_usage_reset, first_login_at, created_at, updated_at
		FROM service_subscriptions WHERE user_id = ?`
	var sub models.ServiceSubscription
	var lastReset, createdAt, updatedAt string
	var firstLogin sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.MonthlyUsage,
		&lastReset, &firstLogin, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub.LastUsageReset, _ = time.Parse(time.RFC3339, lastReset)
	if firstLogin.Valid {
		sub.FirstLoginAt, _ = time.Parse(time.RFC3339, firstLogin.String)
	}
	sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sub, nil
}

func (r *SQLiteSubscriptionRepository) ResetMonthlyUsage(ctx context.Context, userID string, resetAt time.Time) error {
	query := `UPDATE service_subscriptions SET monthly_usage = 0, last_usage_reset = ?, updated_at = ? WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query,
		resetAt.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339), userID)
	return err
}

// TryCharge performs the quota check and the increment in one conditional
// UPDATE, so concurrent requests from the same user cannot both pass a
// read-then-write check and overshoot the limit.
func (r *SQLiteSubscriptionRepository) TryCharge(ctx context.Context, userID string, count, limit int) (bool, error) {
	query := `UPDATE service_subscriptions
		SET monthly_usage = monthly_usage + ?, updated_at = ?
		WHERE user_id = ? AND monthly_usage + ? <= ?`
	result, err := r.db.ExecContext(ctx, query,
		count, time.Now().UTC().Format(time.RFC3339), userID, count, limit)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *SQLiteSubscriptionRepository) Charge(ctx context.Context, userID string, count int) error {
	query := `UPDATE service_subscriptions SET monthly_usage = monthly_usage + ?, updated_at = ? WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query,
		count, time.Now().UTC().Format(time.RFC3339), userID)
	return err
}

func (r *SQLiteSubscriptionRepository) UpdatePlan(ctx context.Context, userID, plan string) error {
	query := `UPDATE service_subscriptions SET plan = ?, updated_at = ? WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query,
		plan, time.Now().UTC().Format(time.RFC3339), userID)
	return err
}
