// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api implements the public-facing HTTP server for CI test
// analytics. It decodes uploaded batches of test runs and hands them
// to internal/ingest, and serves windowed per-test aggregates parsed
// back out of the project's artifact.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ccta/internal/ingest"
	"ccta/pkg/ccta"
)

// Server handles the HTTP requests for the test-analytics service. It
// is configured with an ingest registry shared with the background
// flush/rewrite worker.
type Server struct {
	reg     *ingest.Registry
	numDays int
}

// NewServer creates and configures a new API server over reg. numDays
// is the window width a query uses when it gives no days parameter.
func NewServer(reg *ingest.Registry, numDays int) *Server {
	return &Server{reg: reg, numDays: numDays}
}

// RegisterRoutes sets up the HTTP routes for the server on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ingest/{repo}/{branch}", s.handleIngest)
	mux.HandleFunc("GET /tests/{repo}/{branch}", s.handleTests)
}

// ListenAndServe starts the HTTP server on the specified address, with
// timeouts suitable for a public-facing listener.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("ccta server listening on %s\n", addr)
	return httpServer.ListenAndServe()
}

// uploadRun is the wire shape of one reported test execution.
type uploadRun struct {
	Testsuite string  `json:"testsuite"`
	Name      string  `json:"name"`
	Outcome   string  `json:"outcome"`
	Duration  float32 `json:"duration"`
	Flaky     bool    `json:"flaky"`
}

// uploadBatch is the wire shape of a POST /ingest/{repo}/{branch} body.
type uploadBatch struct {
	Timestamp  int64       `json:"timestamp"`
	Flags      []string    `json:"flags"`
	CommitHash string      `json:"commit_hash"`
	Runs       []uploadRun `json:"runs"`
}

func projectKey(repo, branch string) string {
	return repo + "/" + branch
}

// handleIngest decodes an uploaded batch of test runs and folds them
// into the named project's artifact via internal/ingest.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	repo, branch := r.PathValue("repo"), r.PathValue("branch")
	if repo == "" || branch == "" {
		http.Error(w, "repo and branch are required", http.StatusBadRequest)
		return
	}

	var body uploadBatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(body.Runs) == 0 {
		http.Error(w, "runs must not be empty", http.StatusBadRequest)
		return
	}

	timestamp := body.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	runs := make([]ccta.TestRun, len(body.Runs))
	for i, ur := range body.Runs {
		outcome, err := ccta.ParseOutcome(ur.Outcome)
		if err != nil {
			http.Error(w, fmt.Sprintf("runs[%d]: %v", i, err), http.StatusBadRequest)
			return
		}
		runs[i] = ccta.TestRun{
			Testsuite: ur.Testsuite,
			Name:      ur.Name,
			Outcome:   outcome,
			Duration:  ur.Duration,
			Flaky:     ur.Flaky,
		}
	}

	batch := ingest.Batch{
		Project:    projectKey(repo, branch),
		Timestamp:  uint32(timestamp),
		Flags:      body.Flags,
		CommitHash: body.CommitHash,
		Runs:       runs,
	}
	if err := s.reg.Ingest(r.Context(), batch); err != nil {
		http.Error(w, fmt.Sprintf("ingest failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]int{"accepted": len(runs)})
}

// testResult is the wire shape of one row in a GET /tests response.
type testResult struct {
	Testsuite  string          `json:"testsuite"`
	Name       string          `json:"name"`
	Flags      []string        `json:"flags,omitempty"`
	Aggregates ccta.Aggregates `json:"aggregates"`
}

// handleTests parses the current artifact for a project and returns
// per-test aggregates over the requested day window, optionally
// filtered to rows carrying a given flag.
func (s *Server) handleTests(w http.ResponseWriter, r *http.Request) {
	repo, branch := r.PathValue("repo"), r.PathValue("branch")
	if repo == "" || branch == "" {
		http.Error(w, "repo and branch are required", http.StatusBadRequest)
		return
	}

	days := int64(s.numDays)
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = n
	}
	flag := r.URL.Query().Get("flag")

	now := uint32(time.Now().Unix())
	v, err := s.reg.View(r.Context(), projectKey(repo, branch), now)
	if err != nil {
		http.Error(w, fmt.Sprintf("load project: %v", err), http.StatusInternalServerError)
		return
	}

	results := make([]testResult, 0, v.NumTests())
	v.Tests(flag, 0, days, func(h ccta.TestHandle, agg ccta.Aggregates) bool {
		name, _ := h.Name()
		suite, _ := h.Testsuite()
		flags, _ := h.Flags()
		results = append(results, testResult{
			Testsuite:  suite,
			Name:       name,
			Flags:      flags,
			Aggregates: agg,
		})
		return true
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}
