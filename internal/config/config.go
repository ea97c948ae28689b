// Package config handles application configuration.
package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret string

	// CookieSigningKey is the 32-byte HMAC key for guest usage cookies,
	// derived from JWT_SECRET via HKDF unless COOKIE_SECRET is set.
	CookieSigningKey []byte

	// Generative AI
	GeminiAPIKey string // Accepted env names: GEMINI_API_KEY, GOOGLE_API_KEY, GOOGLE_GENERATIVE_AI_API_KEY
	VisionAPIKey string // Optional; people detection degrades to "不明" when absent

	// Text models tried in order until one returns parseable JSON.
	TextModels []string
	// ImageModels tried in order for banner rendering.
	ImageModels []string

	// CORS
	CORSOrigins []string

	// Limits
	DisableLimits   bool   // DOYA_DISABLE_LIMITS - bypass all usage gating
	DisableHeadless bool   // DOYA_DISABLE_HEADLESS - skip browser-based color extraction
	UpgradeURL      string // Shown to users who hit their monthly limit

	// ChromePath overrides browser auto-detection for headless analysis.
	ChromePath string

	// Pipeline timeouts
	PageFetchTimeout   time.Duration // HTML fetch budget
	HeadlessNavTimeout time.Duration // Browser navigation budget
	VisionTimeout      time.Duration // Face-detection call budget
	ImageFetchTimeout  time.Duration // Per representative-image fetch

	// Object Storage (S3-compatible) for banner archival
	StorageEnabled   bool
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string

	// Idle shutdown settings (for scale-to-zero deployments)
	IdleTimeout time.Duration // Time before shutting down when idle (0 = disabled)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:doya.db?_journal=WAL&_timeout=5000"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		GeminiAPIKey: getEnvWithFallback("GEMINI_API_KEY", "GOOGLE_API_KEY",
			getEnv("GOOGLE_GENERATIVE_AI_API_KEY", "")),
		VisionAPIKey: getEnv("VISION_API_KEY", ""),

		TextModels:  getEnvSlice("BANNER_TEXT_MODELS", []string{"gemini-2.5-flash", "gemini-2.0-flash"}),
		ImageModels: getEnvSlice("BANNER_IMAGE_MODELS", []string{"gemini-2.5-flash-image-preview", "gemini-2.0-flash-preview-image-generation"}),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		DisableLimits:   getEnvBool("DOYA_DISABLE_LIMITS", false),
		DisableHeadless: getEnvBool("DOYA_DISABLE_HEADLESS", false),
		UpgradeURL:      getEnv("UPGRADE_URL", "https://doya.app/pricing"),
		ChromePath:      getEnv("CHROME_PATH", ""),

		PageFetchTimeout:   getEnvDuration("PAGE_FETCH_TIMEOUT", 12*time.Second),
		HeadlessNavTimeout: getEnvDuration("HEADLESS_NAV_TIMEOUT", 16*time.Second),
		VisionTimeout:      getEnvDuration("VISION_TIMEOUT", 10*time.Second),
		ImageFetchTimeout:  getEnvDuration("IMAGE_FETCH_TIMEOUT", 7*time.Second),

		// Object storage uses the standard AWS env vars
		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),
	}

	// Enable storage if bucket is configured
	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// Guest cookies are signed with a dedicated key derived from the JWT
	// secret unless one is provided explicitly.
	cookieSecret := getEnv("COOKIE_SECRET", "")
	if cookieSecret == "" {
		cookieSecret = cfg.JWTSecret
	}
	cfg.CookieSigningKey = deriveSigningKey(cookieSecret)

	return cfg, nil
}

// GenerationEnabled returns true if a generative API key is configured.
func (c *Config) GenerationEnabled() bool {
	return c.GeminiAPIKey != ""
}

// VisionEnabled returns true if the vision API is configured.
func (c *Config) VisionEnabled() bool {
	return c.VisionAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

// deriveSigningKey creates a 32-byte HMAC key from a secret string using HKDF.
// HKDF (HMAC-based Key Derivation Function) is appropriate for deriving keys
// from high-entropy secrets. For low-entropy passwords, use Argon2 instead.
func deriveSigningKey(secret string) []byte {
	// - Salt: fixed but unique to this application
	// - Info: context string to bind the key to its purpose
	salt := []byte("doya-banner-api-cookie-key-v1")
	info := []byte("hmac-sha256-guest-usage-cookie")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		// This should never happen with valid inputs
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
