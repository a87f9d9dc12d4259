package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/swiftlink/internal/analytics"
	"github.com/serroba/swiftlink/internal/handlers"
	"github.com/serroba/swiftlink/internal/links"
	"github.com/serroba/swiftlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, storage links.Storage) *chi.Mux {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("SwiftLink", "1.0.0"))
	handlers.RegisterRoutes(api, newTestHandler(storage, analytics.DiscardPublishers()))

	return router
}

func TestRoutes(t *testing.T) {
	t.Run("create then resolve over http", func(t *testing.T) {
		router := newTestRouter(t, store.NewMemoryStore())

		req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(`{"url":"example.com"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var created handlers.LinkView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, created.ShortURL, w.Header().Get("Location"))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?u="+created.ShortCode, nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Location"))
	})

	t.Run("invalid url is a 400", func(t *testing.T) {
		router := newTestRouter(t, store.NewMemoryStore())

		req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(`{"url":"not a url"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid URL format")
	})

	t.Run("delete unknown id is a 204", func(t *testing.T) {
		router := newTestRouter(t, store.NewMemoryStore())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/links/missing", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("root without code lists links", func(t *testing.T) {
		router := newTestRouter(t, store.NewMemoryStore())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})
}
