package middlewarectx_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-server/internal/lib/jwt"
	"github.com/magabrotheeeer/license-server/internal/models"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	validToken, err := maker.GenerateToken("u-1", "ivan@example.com", models.RoleAdmin)
	require.NoError(t, err)

	expiredToken, err := jwt.NewJWTMaker("test-secret", -time.Minute).GenerateToken("u-1", "ivan@example.com", models.RoleAdmin)
	require.NoError(t, err)

	foreignToken, err := jwt.NewJWTMaker("other-secret", time.Hour).GenerateToken("u-1", "ivan@example.com", models.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "валидный токен", authHeader: "Bearer " + validToken, wantStatusCode: http.StatusOK, wantCalled: true},
		{name: "нет заголовка", authHeader: "", wantStatusCode: http.StatusUnauthorized},
		{name: "неверная схема", authHeader: "Basic abc", wantStatusCode: http.StatusUnauthorized},
		{name: "токен просрочен", authHeader: "Bearer " + expiredToken, wantStatusCode: http.StatusUnauthorized},
		{name: "чужая подпись", authHeader: "Bearer " + foreignToken, wantStatusCode: http.StatusUnauthorized},
		{name: "мусор вместо токена", authHeader: "Bearer not.a.jwt", wantStatusCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				id, ok := middlewarectx.UserIDFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "u-1", id)
				assert.Equal(t, "ivan@example.com", r.Context().Value(middlewarectx.Email))
				assert.Equal(t, models.RoleAdmin, middlewarectx.RoleFrom(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middlewarectx.JWTMiddleware(maker, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)

	tests := []struct {
		name           string
		role           string
		wantStatusCode int
	}{
		{name: "super_admin", role: models.RoleSuperAdmin, wantStatusCode: http.StatusOK},
		{name: "admin", role: models.RoleAdmin, wantStatusCode: http.StatusOK},
		{name: "support запрещён", role: models.RoleSupport, wantStatusCode: http.StatusForbidden},
		{name: "customer запрещён", role: models.RoleCustomer, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken("u-1", "user@example.com", tt.role)
			require.NoError(t, err)

			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			log := newNoopLogger()
			h := middlewarectx.JWTMiddleware(maker, log)(middlewarectx.RequireAdmin(log)(next))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/versions", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
		})
	}

	t.Run("без JWTMiddleware", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		rec := httptest.NewRecorder()
		middlewarectx.RequireAdmin(newNoopLogger())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
