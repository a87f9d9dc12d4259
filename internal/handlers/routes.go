package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/swiftlink/internal/ratelimit"
)

// RegisterRoutes registers all link routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	// GET /?u={code} - Resolve a short link or render the collection
	huma.Register(api, huma.Operation{
		OperationID: "resolve",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Resolve short link",
		Description: "Redirects to the original URL when u carries a known short code, otherwise lists links.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, h.Resolve)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List links",
		Tags:        []string{"Links"},
	}, h.ListLinks)

	// POST /links - Shorten and annotate
	// Every call reaches the annotation model, so it has its own scope
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/links",
		Summary:       "Shorten URL",
		Description:   "Normalizes the URL, annotates it with AI tags, summary and category, and stores a new short link.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Scope: ratelimit.ScopeAnnotate,
			},
		},
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/links/{id}",
		Summary:       "Delete link",
		Description:   "Deletes a link. Unknown ids are ignored.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "visit-link",
		Method:      http.MethodPost,
		Path:        "/links/{id}/visit",
		Summary:     "Record visit",
		Description: "Counts an explicit visit and returns the link so the client can open the original URL.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Scope: ratelimit.ScopeRead,
			},
		},
	}, h.VisitLink)
}
