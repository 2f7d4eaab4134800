package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"ruleout-server/internal/config"
	"ruleout-server/internal/interfaces/httpserver"
	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
)

func newServer(checks []httpserver.ReadinessCheck) http.Handler {
	cfg := &config.Config{ServiceName: "ruleout-test", Environment: "test", CORSAllowedOrigins: []string{"https://app.ruleout.ai"}}
	provider := handlers.NewProvider(handlers.Services{}, zerolog.Nop())
	authn := middlewares.NewAuthenticator(nil, false, zerolog.Nop())
	return httpserver.New(cfg, zerolog.Nop(), provider, authn, checks).Handler()
}

func TestPublicRoutes(t *testing.T) {
	srv := newServer(nil)

	for _, path := range []string{"/", "/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestReadinessReportsFailingChecks(t *testing.T) {
	srv := newServer([]httpserver.ReadinessCheck{
		{Name: "database", Check: func(context.Context) error { return nil }},
		{Name: "storage", Check: func(context.Context) error { return errors.New("not writable") }},
	})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not_ready","checks":{"storage":"not writable"}}`, w.Body.String())
}

func TestProtectedRoutesNeedUser(t *testing.T) {
	srv := newServer(nil)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/conversations", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/stream", nil)
	req.Header.Set("Origin", "https://app.ruleout.ai")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.ruleout.ai", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/chat/stream", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
