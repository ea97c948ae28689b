package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	appconfig "github.com/doya-app/banner-api/internal/config"
)

func TestNewStorageServiceDisabled(t *testing.T) {
	cfg := &appconfig.Config{StorageEnabled: false}

	svc, err := NewStorageService(cfg, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.IsEnabled() {
		t.Error("expected storage to be disabled")
	}
	if svc.Bucket() != "" {
		t.Error("expected bucket to be empty when disabled")
	}
}

// Enabled-path behavior needs real S3-compatible credentials or a local
// MinIO; only the disabled short-circuits are unit tested.

func TestStorageServiceDisabledShortCircuits(t *testing.T) {
	svc, _ := NewStorageService(&appconfig.Config{}, slog.Default())
	ctx := context.Background()

	key, err := svc.ArchiveBanner(ctx, "batch", "A", "data:image/png;base64,aGVsbG8=")
	if err != nil || key != "" {
		t.Errorf("ArchiveBanner disabled = (%q, %v), want empty no-op", key, err)
	}

	if err := svc.DeleteBanner(ctx, "banners/batch/A.png"); err != nil {
		t.Errorf("DeleteBanner disabled = %v", err)
	}

	deleted, err := svc.DeleteOldBanners(ctx, 24*time.Hour)
	if err != nil || deleted != 0 {
		t.Errorf("DeleteOldBanners disabled = (%d, %v)", deleted, err)
	}

	if _, err := svc.GetBannerPresignedURL(ctx, "k", 0); err == nil {
		t.Error("presigned URL should fail when storage is disabled")
	}
}

func TestBannerKey(t *testing.T) {
	if got := BannerKey("01ABC", "B"); got != "banners/01ABC/B.png" {
		t.Errorf("BannerKey = %q", got)
	}
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantData string
		wantType string
		wantErr  bool
	}{
		{"png", "data:image/png;base64,aGVsbG8=", "hello", "image/png", false},
		{"jpeg", "data:image/jpeg;base64,YQ==", "a", "image/jpeg", false},
		{"not a data url", "https://example.com/x.png", "", "", true},
		{"no payload", "data:image/png;base64", "", "", true},
		{"not base64 encoded", "data:text/plain,hello", "", "", true},
		{"bad base64", "data:image/png;base64,!!!", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, contentType, err := decodeDataURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("decodeDataURL(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeDataURL(%q) failed: %v", tt.input, err)
			}
			if string(data) != tt.wantData || contentType != tt.wantType {
				t.Errorf("decodeDataURL(%q) = (%q, %q)", tt.input, data, contentType)
			}
		})
	}
}
