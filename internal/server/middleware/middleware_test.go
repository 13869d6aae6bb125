package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Permanently/sessionbook/internal/auth"
	"github.com/Permanently/sessionbook/internal/domain"
	"github.com/Permanently/sessionbook/internal/server/middleware"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func okHandler(sawOwner *domain.OwnerScope) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if owner, ok := middleware.OwnerFromContext(r.Context()); ok && sawOwner != nil {
			*sawOwner = owner
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	t.Parallel()

	owner := domain.OwnerScope{UID: "user-1", WorkspaceID: "ws-2", Email: "u@example.com"}

	t.Run("bearer token", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueToken(testSecret, owner, time.Minute)
		require.NoError(t, err)

		var saw domain.OwnerScope
		handler := middleware.Auth(testSecret)(okHandler(&saw))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, owner, saw)
	})

	t.Run("query token for websocket upgrades", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueToken(testSecret, owner, time.Minute)
		require.NoError(t, err)

		var saw domain.OwnerScope
		handler := middleware.Auth(testSecret)(okHandler(&saw))

		req := httptest.NewRequest(http.MethodGet, "/ws/summaries?token="+token, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, owner, saw)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		handler := middleware.Auth(testSecret)(okHandler(nil))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()

		handler := middleware.Auth(testSecret)(okHandler(nil))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		req.Header.Set("Authorization", "Bearer junk")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	owner := domain.OwnerScope{UID: "user-1"}

	handler := middleware.RateLimit(1, 2)(okHandler(nil))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		req = req.WithContext(middleware.WithOwner(req.Context(), owner))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do(), "burst exhausted")
}

func TestRateLimitRequiresOwner(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimit(1, 1)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
