package health

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/swiftlink/internal/links"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// StorageChecker reports link storage healthy when the collection key can be
// read, including when it has never been written. Storage that can ping its
// backend, bypassing any cache, is pinged instead.
func StorageChecker(storage links.Storage) Checker {
	if pinger, ok := storage.(Checker); ok {
		return pinger
	}

	return CheckerFunc(func(ctx context.Context) error {
		_, err := storage.Read(ctx, links.StorageKey)
		if errors.Is(err, links.ErrNotFound) {
			return nil
		}

		return err
	})
}

// Handler handles health check operations.
type Handler struct {
	checkers map[string]Checker
}

// NewHandler creates a new health handler over named dependencies.
func NewHandler(checkers map[string]Checker) *Handler {
	return &Handler{checkers: checkers}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Checks = make(map[string]string, len(h.checkers))

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if err := h.checkers[name].Ping(ctx); err != nil {
			resp.Body.Checks[name] = "unhealthy"
			resp.Body.Status = "degraded"
		} else {
			resp.Body.Checks[name] = "healthy"
		}
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, h.Check)
}
