// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"database/sql"
	"log/slog"

	appconfig "github.com/doya-app/banner-api/internal/config"
	"github.com/doya-app/banner-api/internal/http/mw"
	"github.com/doya-app/banner-api/internal/service"
)

// Handlers bundles the handler dependencies for route registration.
type Handlers struct {
	cfg      *appconfig.Config
	services *service.Services
	db       *sql.DB
	logger   *slog.Logger
}

// New creates the handler set.
func New(cfg *appconfig.Config, services *service.Services, db *sql.DB, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{cfg: cfg, services: services, db: db, logger: logger}
}

// getUserID extracts the authenticated user ID from context, "" for guests.
func getUserID(ctx context.Context) string {
	claims := mw.GetUserClaims(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
