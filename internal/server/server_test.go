package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/me/taskdag/internal/logging"
	"github.com/me/taskdag/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "taskdag.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.RecordRegion(t.Context(), store.RegionRecord{
		ID:         "r1",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		TaskCount:  2,
		Traversal:  "bfs",
	}); err != nil {
		t.Fatal(err)
	}

	logger := logging.New(logging.ParseLevel("error"), "text")
	return New(logger, st)
}

func TestListRegionsEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/regions", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /regions status = %d, want 200", rec.Code)
	}
	var got []store.RegionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("body = %+v, want one region r1", got)
	}
}

func TestGetRegionEndpointNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/regions/missing", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /regions/missing status = %d, want 404", rec.Code)
	}
}

func TestGetRegionEndpointFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/regions/r1", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /regions/r1 status = %d, want 200", rec.Code)
	}
	var got store.RegionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "r1" || got.TaskCount != 2 {
		t.Errorf("body = %+v, want region r1 with 2 tasks", got)
	}
}
