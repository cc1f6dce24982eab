package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ccta/internal/ingest"
	"ccta/internal/storage"
)

func newTestServer() (*Server, *httptest.Server) {
	reg := ingest.NewRegistry(storage.NewMemoryStore(), 7)
	srv := NewServer(reg, 7)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return srv, httptest.NewServer(mux)
}

func TestHandleIngestAcceptsValidBatch(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	body := `{"flags":["unit"],"commit_hash":"","runs":[
		{"testsuite":"suite","name":"T1","outcome":"pass","duration":1.5},
		{"testsuite":"suite","name":"T2","outcome":"failure","duration":0.2}
	]}`
	resp, err := ts.Client().Post(ts.URL+"/ingest/my-org-my-repo/main", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /ingest: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var out map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["accepted"] != 2 {
		t.Fatalf("accepted = %d, want 2", out["accepted"])
	}
}

func TestHandleIngestRejectsEmptyRuns(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/ingest/repo/branch", "application/json", bytes.NewBufferString(`{"runs":[]}`))
	if err != nil {
		t.Fatalf("POST /ingest: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty runs, got %d", resp.StatusCode)
	}
}

func TestHandleIngestRejectsUnknownOutcome(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	body := `{"runs":[{"testsuite":"s","name":"T","outcome":"bogus"}]}`
	resp, err := ts.Client().Post(ts.URL+"/ingest/repo/branch", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /ingest: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown outcome, got %d", resp.StatusCode)
	}
}

func TestHandleTestsRoundTripsIngestedRuns(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	ingestBody := `{"runs":[
		{"testsuite":"suite","name":"T1","outcome":"pass"},
		{"testsuite":"suite","name":"T1","outcome":"pass"},
		{"testsuite":"suite","name":"T1","outcome":"failure"}
	]}`
	resp, err := ts.Client().Post(ts.URL+"/ingest/repo/branch", "application/json", bytes.NewBufferString(ingestBody))
	if err != nil {
		t.Fatalf("POST /ingest: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("ingest: expected 202, got %d", resp.StatusCode)
	}

	resp, err = ts.Client().Get(ts.URL + "/tests/repo/branch?days=7")
	if err != nil {
		t.Fatalf("GET /tests: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var results []testResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Name != "T1" {
		t.Fatalf("Name = %q, want T1", results[0].Name)
	}
	if results[0].Aggregates.TotalPass != 2 || results[0].Aggregates.TotalFail != 1 {
		t.Fatalf("aggregates = %+v, want pass=2 fail=1", results[0].Aggregates)
	}
}

func TestHandleTestsRejectsMissingPathParams(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	// A bare /tests/ with no repo/branch segments doesn't match the
	// registered pattern at all, so the mux itself 404s.
	resp, err := ts.Client().Get(ts.URL + "/tests/")
	if err != nil {
		t.Fatalf("GET /tests/: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleTestsRejectsBadDaysParam(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/tests/repo/branch?days=not-a-number")
	if err != nil {
		t.Fatalf("GET /tests: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListenAndServeInvalidAddr(t *testing.T) {
	reg := ingest.NewRegistry(storage.NewMemoryStore(), 7)
	srv := NewServer(reg, 7)
	if err := srv.ListenAndServe("127.0.0.1:notaport"); err == nil {
		t.Fatalf("expected ListenAndServe to return an error for invalid addr")
	}
}
