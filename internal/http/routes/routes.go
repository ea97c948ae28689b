// Package routes provides shared route registration for the banner API.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/doya-app/banner-api/internal/http/handlers"
	"github.com/doya-app/banner-api/internal/http/mw"
	"github.com/doya-app/banner-api/internal/version"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig("Doya Banner API", version.Get().Short())
	cfg.Info.Description = "Generates Japanese ad banners from a landing page URL: brand colors, copy, and imagery are extracted from the page and rendered through a generative image model."

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Session token issued by the doya web frontend.",
		},
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Banner", Description: "Banner generation", Extensions: map[string]any{"x-displayName": "Banner"}},
		{Name: "Usage", Description: "Quota and usage", Extensions: map[string]any{"x-displayName": "Usage"}},
		{Name: "Gallery", Description: "Shared generations", Extensions: map[string]any{"x-displayName": "Gallery"}},
		{Name: "Health", Description: "System health and status", Extensions: map[string]any{"x-displayName": "Health"}},
	}

	return cfg
}

// RegisterPublic registers the endpoints available without authentication.
// The generation endpoint itself is a raw chi handler (cookie handling and
// fixed error bodies) and is mounted in main.
func RegisterPublic(api huma.API, h *handlers.Handlers) {
	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithOperationID("healthCheck"))

	mw.PublicGet(api, "/api/v1/usage", h.GetUsage,
		mw.WithTags("Usage"),
		mw.WithSummary("Get usage standing"),
		mw.WithDescription("Returns the caller's monthly quota standing. Guests are identified by the signed usage cookie."),
		mw.WithOperationID("getUsage"))

	mw.PublicGet(api, "/api/v1/gallery", h.ListGallery,
		mw.WithTags("Gallery"),
		mw.WithSummary("List shared banners"),
		mw.WithOperationID("listGallery"))

	mw.PublicGet(api, "/api/v1/generations/{id}", h.GetGeneration,
		mw.WithTags("Gallery"),
		mw.WithSummary("Get one generation"),
		mw.WithDescription("Owners see their own generations; gallery-shared generations are public."),
		mw.WithOperationID("getGeneration"))
}

// RegisterProtected registers the endpoints that require a session token.
func RegisterProtected(api huma.API, h *handlers.Handlers) {
	mw.ProtectedGet(api, "/api/v1/generations", h.ListGenerations,
		mw.WithTags("Banner"),
		mw.WithSummary("List my generations"),
		mw.WithOperationID("listGenerations"))
}

// RegisterProbes registers the hidden Kubernetes probes.
func RegisterProbes(api huma.API, h *handlers.Handlers) {
	mw.HiddenGet(api, "/healthz", h.Livez)
	mw.HiddenGet(api, "/readyz", h.Readyz)
}
