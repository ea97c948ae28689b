package repository

import (
	"context"
	"testing"
	"time"

	"github.com/doya-app/banner-api/internal/models"
)

func TestGenerationCreateAndGet(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	gen := &models.Generation{
		ID:             "gen-1",
		UserID:         "user-1",
		BatchID:        "batch-1",
		PatternLetter:  "A",
		SourceURL:      "https://example.com",
		Size:           "1080x1080",
		ImagePrompt:    "a banner prompt",
		AnalysisJSON:   `{"key_message":"test"}`,
		UsedModel:      "gemini-2.5-flash-image-preview",
		ShareToGallery: true,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := repos.Generation.Create(ctx, gen); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repos.Generation.GetByID(ctx, "gen-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected generation, got nil")
	}
	if got.UserID != "user-1" || got.PatternLetter != "A" || !got.ShareToGallery {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.StorageKey != "" {
		t.Errorf("StorageKey should be empty, got %q", got.StorageKey)
	}
}

func TestGenerationGuestHasNoUserID(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	gen := &models.Generation{
		ID:            "gen-guest",
		BatchID:       "batch-g",
		PatternLetter: "A",
		SourceURL:     "https://example.com",
		Size:          "1080x1080",
		ImagePrompt:   "p",
		CreatedAt:     time.Now(),
	}
	if err := repos.Generation.Create(ctx, gen); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repos.Generation.GetByID(ctx, "gen-guest")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.UserID != "" {
		t.Errorf("guest UserID = %q, want empty", got.UserID)
	}
}

func TestGetByBatchIDOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteGenerationRepository(db)
	ctx := context.Background()

	now := time.Now()
	for _, letter := range []string{"B", "A", "C"} {
		gen := &models.Generation{
			ID:            "gen-" + letter,
			UserID:        "user-1",
			BatchID:       "batch-1",
			PatternLetter: letter,
			SourceURL:     "https://example.com",
			Size:          "1080x1080",
			ImagePrompt:   "p",
			CreatedAt:     now,
		}
		if err := repo.Create(ctx, gen); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	gens, err := repo.GetByBatchID(ctx, "batch-1")
	if err != nil {
		t.Fatalf("GetByBatchID failed: %v", err)
	}
	if len(gens) != 3 {
		t.Fatalf("got %d generations, want 3", len(gens))
	}
	for i, want := range []string{"A", "B", "C"} {
		if gens[i].PatternLetter != want {
			t.Errorf("position %d = %q, want %q", i, gens[i].PatternLetter, want)
		}
	}
}

func TestListGallery(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteGenerationRepository(db)
	ctx := context.Background()

	now := time.Now()
	insertTestGeneration(t, db, "gen-1", "user-1", "b1", true, now.Add(-2*time.Hour))
	insertTestGeneration(t, db, "gen-2", "user-1", "b2", false, now.Add(-time.Hour))
	insertTestGeneration(t, db, "gen-3", "user-2", "b3", true, now)

	gens, err := repo.ListGallery(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListGallery failed: %v", err)
	}
	if len(gens) != 2 {
		t.Fatalf("got %d gallery entries, want 2", len(gens))
	}
	if gens[0].ID != "gen-3" {
		t.Errorf("newest first: got %q, want gen-3", gens[0].ID)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteGenerationRepository(db)
	ctx := context.Background()

	now := time.Now()
	insertTestGeneration(t, db, "gen-old-guest", "", "b1", false, now.Add(-72*time.Hour))
	insertTestGeneration(t, db, "gen-old-shared", "", "b2", true, now.Add(-72*time.Hour))
	insertTestGeneration(t, db, "gen-old-user", "user-1", "b3", false, now.Add(-72*time.Hour))
	insertTestGeneration(t, db, "gen-fresh-guest", "", "b4", false, now)

	ids, err := repo.DeleteOlderThan(ctx, now.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "gen-old-guest" {
		t.Errorf("deleted IDs = %v, want [gen-old-guest]", ids)
	}

	// Shared and user-owned rows survive.
	for _, id := range []string{"gen-old-shared", "gen-old-user", "gen-fresh-guest"} {
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID(%s) failed: %v", id, err)
		}
		if got == nil {
			t.Errorf("%s should not have been deleted", id)
		}
	}
}
