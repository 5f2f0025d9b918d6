package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-server/internal/http/middlewarectx"
)

type observation struct {
	method string
	route  string
	status int
}

type httpSpy struct{ got []observation }

func (s *httpSpy) ObserveHTTP(method, route string, status int, _ time.Duration) {
	s.got = append(s.got, observation{method: method, route: route, status: status})
}

func TestMetricsMiddleware(t *testing.T) {
	spy := &httpSpy{}
	r := chi.NewRouter()
	r.Use(middlewarectx.MetricsMiddleware(spy))
	r.Get("/api/versions/{id}/files", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/versions/7b1e/files", "/api/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, spy.got, 2)
	assert.Equal(t, observation{method: http.MethodGet, route: "/api/versions/{id}/files", status: http.StatusNotFound}, spy.got[0])
	assert.Equal(t, observation{method: http.MethodGet, route: "/api/health", status: http.StatusOK}, spy.got[1])
}
