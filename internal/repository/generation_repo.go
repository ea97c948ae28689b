package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doya-app/banner-api/internal/models"
)

// SQLiteGenerationRepository implements GenerationRepository for SQLite.
type SQLiteGenerationRepository struct {
	db *sql.DB
}

// NewSQLiteGenerationRepository creates a new SQLite generation repository.
func NewSQLiteGenerationRepository(db *sql.DB) *SQLiteGenerationRepository {
	return &SQLiteGenerationRepository{db: db}
}

const generationColumns = `id, user_id, batch_id, pattern_letter, source_url, size, image_prompt,
	analysis_json, image_data_url, storage_key, used_model, share_to_gallery, share_profile, created_at`

func (r *SQLiteGenerationRepository) Create(ctx context.Context, gen *models.Generation) error {
	query := `INSERT INTO generations (` + generationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var userID *string
	if gen.UserID != "" {
		userID = &gen.UserID
	}
	_, err := r.db.ExecContext(ctx, query,
		gen.ID, userID, gen.BatchID, gen.PatternLetter, gen.SourceURL, gen.Size,
		gen.ImagePrompt, nullable(gen.AnalysisJSON), nullable(gen.ImageDataURL),
		nullable(gen.StorageKey), nullable(gen.UsedModel),
		boolToInt(gen.ShareToGallery), boolToInt(gen.ShareProfile),
		gen.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteGenerationRepository) GetByID(ctx context.Context, id string) (*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = ?`
	gen, err := scanGeneration(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return gen, err
}

func (r *SQLiteGenerationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGenerations(rows)
}

func (r *SQLiteGenerationRepository) GetByBatchID(ctx context.Context, batchID string) ([]*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations
		WHERE batch_id = ? ORDER BY pattern_letter`
	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGenerations(rows)
}

func (r *SQLiteGenerationRepository) ListGallery(ctx context.Context, limit, offset int) ([]*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations
		WHERE share_to_gallery = 1 ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGenerations(rows)
}

func (r *SQLiteGenerationRepository) DeleteOlderThan(ctx context.Context, before time.Time) ([]string, error) {
	cutoff := before.UTC().Format(time.RFC3339)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM generations WHERE user_id IS NULL AND share_to_gallery = 0 AND created_at < ?`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM generations WHERE user_id IS NULL AND share_to_gallery = 0 AND created_at < ?`, cutoff); err != nil {
		return nil, err
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*models.Generation, error) {
	var gen models.Generation
	var userID, analysisJSON, imageDataURL, storageKey, usedModel sql.NullString
	var shareGallery, shareProfile int
	var createdAt string
	err := row.Scan(
		&gen.ID, &userID, &gen.BatchID, &gen.PatternLetter, &gen.SourceURL, &gen.Size,
		&gen.ImagePrompt, &analysisJSON, &imageDataURL, &storageKey, &usedModel,
		&shareGallery, &shareProfile, &createdAt)
	if err != nil {
		return nil, err
	}
	gen.UserID = userID.String
	gen.AnalysisJSON = analysisJSON.String
	gen.ImageDataURL = imageDataURL.String
	gen.StorageKey = storageKey.String
	gen.UsedModel = usedModel.String
	gen.ShareToGallery = shareGallery != 0
	gen.ShareProfile = shareProfile != 0
	gen.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &gen, nil
}

func collectGenerations(rows *sql.Rows) ([]*models.Generation, error) {
	var gens []*models.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}
	return gens, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
