package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/doya-app/banner-api/internal/database/migrations"
	"github.com/doya-app/banner-api/internal/version"
)

// HealthCheckOutput represents the health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func (h *Handlers) HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Get().Short()
	return out, nil
}

// LivezOutput is the liveness probe response.
type LivezOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez is the Kubernetes liveness probe: the process is up.
func (h *Handlers) Livez(ctx context.Context, input *struct{}) (*LivezOutput, error) {
	out := &LivezOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// ReadyzOutput is the readiness probe response with schema state.
type ReadyzOutput struct {
	Body struct {
		Status          string `json:"status"`
		SchemaVersion   string `json:"schema_version,omitempty"`
		MigrationsCount int    `json:"migrations_applied,omitempty"`
	}
}

// Readyz is the Kubernetes readiness probe: the database is reachable and
// migrated.
func (h *Handlers) Readyz(ctx context.Context, input *struct{}) (*ReadyzOutput, error) {
	if err := h.db.PingContext(ctx); err != nil {
		return nil, huma.Error503ServiceUnavailable("database unreachable")
	}

	schemaVersion, err := migrations.GetLatestVersion(h.db)
	if err != nil {
		return nil, huma.Error503ServiceUnavailable("schema state unknown")
	}
	count, _ := migrations.GetMigrationCount(h.db)

	out := &ReadyzOutput{}
	out.Body.Status = "ready"
	out.Body.SchemaVersion = schemaVersion
	out.Body.MigrationsCount = count
	return out, nil
}
