package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cubemon/cubemon/internal/config"
	"github.com/cubemon/cubemon/internal/models"
	"github.com/cubemon/cubemon/internal/snapshot"
	"github.com/cubemon/cubemon/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *snapshot.Cache, *storage.Repository) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cache := snapshot.New()
	cfg := &config.Config{}
	cfg.RateLimit.Count = 1000
	cfg.RateLimit.Window = time.Minute

	return New(cache, store, cfg), cache, store
}

func TestHandleServers_EmptyBeforeFirstCycle(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Run()

	req := httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Java    models.Snapshot `json:"java"`
		Bedrock models.Snapshot `json:"bedrock"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Java.Servers) != 0 || len(resp.Bedrock.Servers) != 0 {
		t.Errorf("expected empty snapshots, got %+v", resp)
	}
}

func TestHandleServers_ReturnsPublishedSnapshot(t *testing.T) {
	srv, cache, _ := newTestServer(t)
	handler := srv.Run()

	cache.Publish(models.PlatformJava, models.Snapshot{
		UpdatedAt: time.Now(),
		Servers: []models.ServerStatus{
			{Name: "One", Address: "a.example.com", Port: 25565, IsOnline: true, CurrentPlayers: 9},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp struct {
		Java models.Snapshot `json:"java"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Java.Servers) != 1 || resp.Java.Servers[0].CurrentPlayers != 9 {
		t.Errorf("unexpected payload: %+v", resp.Java)
	}
}

func TestHandleServers_ETagNotModified(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Run()

	req := httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag header")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rr.Code)
	}
}

func TestHandlePlatform_UnknownPlatform(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Run()

	req := httptest.NewRequest(http.MethodGet, "/v1/servers/xbox", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHandlePlatform_KnownPlatform(t *testing.T) {
	srv, cache, _ := newTestServer(t)
	handler := srv.Run()

	cache.Publish(models.PlatformBedrock, models.Snapshot{
		UpdatedAt: time.Now(),
		Servers:   []models.ServerStatus{{Name: "BR", Address: "b.example.com", Port: 19132}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/servers/bedrock", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(snap.Servers) != 1 || snap.Servers[0].Name != "BR" {
		t.Errorf("unexpected payload: %+v", snap)
	}
}

func TestHandleServer_MissingParams(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Run()

	req := httptest.NewRequest(http.MethodGet, "/v1/server", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleServer_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Run()

	req := httptest.NewRequest(http.MethodGet, "/v1/server?address=nope.example.com&port=25565", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHandleServer_ReturnsRecord(t *testing.T) {
	srv, _, store := newTestServer(t)
	handler := srv.Run()

	cfg := models.ServerConfig{
		Name: "One", Address: "a.example.com", Port: 25565,
		Platform: models.PlatformJava,
	}
	sample := models.LivenessSample{Online: true, CurrentPlayers: 4, SampledAt: time.Now()}
	if _, err := store.Upsert(sample, cfg, ""); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/server?address=a.example.com&port=25565", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var rec models.SeriesRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec.Address != "a.example.com" || len(rec.History) != 1 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Run()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestRateLimit_BudgetSharedAcrossRoutes(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.RateLimit.Count = 1
	cfg.RateLimit.Window = time.Hour

	handler := New(snapshot.New(), store, cfg).Run()

	req := httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rr.Code)
	}

	// Same client on a different route: the single-token budget is spent,
	// routes must not each grant their own allowance.
	req = httptest.NewRequest(http.MethodGet, "/v1/servers/java", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rr.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Run()

	req := httptest.NewRequest(http.MethodOptions, "/v1/servers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
