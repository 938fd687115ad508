package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"trendwatch/internal/core"
	"trendwatch/internal/server/handlers"
)

type pingFeature struct {
	*core.BaseFeature
}

func (f *pingFeature) Routes() []core.Route {
	return []core.Route{{
		Method: http.MethodGet,
		Path:   "/ping/{name}",
		Handler: func(w http.ResponseWriter, r *http.Request) {
			core.WriteJSON(w, http.StatusOK, map[string]string{"pong": chi.URLParam(r, "name")})
		},
	}}
}

func newTestServer(t *testing.T) (*Server, *core.Database) {
	t.Helper()

	logger := core.NewLoggerWithWriter(io.Discard, slog.LevelInfo)
	db, err := core.OpenSQLite(":memory:", logger)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	registry := core.NewRegistry(logger)
	registry.Register(&pingFeature{core.NewBaseFeature("ping", "Ping", true, logger)})

	config := &core.Config{Server: core.ServerConfig{Host: "127.0.0.1", Port: 0, CorsOrigins: []string{"https://dashboard.example"}}}
	return New(config, logger, db, registry), db
}

func TestHealth(t *testing.T) {
	srv, db := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body handlers.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Database != "ok" || len(body.Features) != 1 || body.Features[0].Name != "ping" {
		t.Errorf("unexpected health: %+v", body)
	}

	db.Close()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status with a closed database = %d, want 503", rec.Code)
	}
}

func TestFeatureRoutesAndCORS(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/ping/trends", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["pong"] != "trends" {
		t.Errorf("unexpected body: %v, %v", body, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping/x", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected CORS header for an unknown origin: %q", got)
	}
}
