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

// Package ingest is the session/batch façade in front of pkg/ccta: it
// keeps one in-memory Writer per project, lazily loaded from storage on
// first touch, and hands batches of test runs to the matching Writer
// under a per-project lock (pkg/ccta's Writer is explicitly
// single-writer, not safe for concurrent Insert calls). A background
// Worker periodically flushes dirty writers and runs GC (see worker.go).
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ccta/internal/storage"
	"ccta/internal/telemetry"
	"ccta/pkg/ccta"
)

// Batch is one reported session: a set of test runs that share a
// timestamp, flag set, and optional commit hash, destined for one
// project's artifact.
type Batch struct {
	Project    string
	Timestamp  uint32
	Flags      []string
	CommitHash string
	Runs       []ccta.TestRun
}

// project pairs a Writer with the lock that serializes access to it
// and a dirty flag the flush worker clears on successful persistence.
type project struct {
	mu    sync.Mutex
	w     *ccta.Writer
	dirty bool
}

// Registry holds one project per distinct project key, backed by
// durable storage. It is safe for concurrent use.
type Registry struct {
	store    storage.Store
	numDays  int
	mu       sync.Mutex
	projects map[string]*project
}

// NewRegistry returns a Registry that creates new projects with a
// numDays-wide sliding window and persists/loads them via store.
func NewRegistry(store storage.Store, numDays int) *Registry {
	return &Registry{
		store:    store,
		numDays:  numDays,
		projects: make(map[string]*project),
	}
}

func (r *Registry) getOrCreate(ctx context.Context, key string) (*project, error) {
	r.mu.Lock()
	if p, ok := r.projects[key]; ok {
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	w, err := r.loadOrNew(ctx, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.projects[key]; ok {
		// Another goroutine won the race to load this project first.
		return p, nil
	}
	p := &project{w: w}
	r.projects[key] = p
	telemetry.ProjectsTracked.Set(float64(len(r.projects)))
	return p, nil
}

func (r *Registry) loadOrNew(ctx context.Context, key string) (*ccta.Writer, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return ccta.NewWriter(r.numDays), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: load project %s: %w", key, err)
	}
	v, err := ccta.Parse(data, uint32(time.Now().Unix()))
	if err != nil {
		return nil, fmt.Errorf("ingest: parse stored artifact for %s: %w", key, err)
	}
	return ccta.WriterFromView(v, v.Now())
}

// Ingest folds a batch of test runs into the named project's writer,
// creating the project (loading it from storage, or starting fresh) on
// first use. The project is marked dirty for the next flush cycle.
func (r *Registry) Ingest(ctx context.Context, b Batch) error {
	p, err := r.getOrCreate(ctx, b.Project)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.w.StartSession(b.Timestamp, b.Flags, b.CommitHash)
	if err != nil {
		return fmt.Errorf("ingest: start session for %s: %w", b.Project, err)
	}
	for _, run := range b.Runs {
		s.Insert(run)
		telemetry.RunsIngestedTotal.WithLabelValues(run.Outcome.String()).Inc()
	}
	telemetry.BatchesIngestedTotal.Inc()
	telemetry.RunsPerBatch.Observe(float64(len(b.Runs)))
	p.dirty = true
	return nil
}

// projectKeys returns a snapshot of currently-loaded project keys, for
// the background worker to iterate without holding the registry lock
// for the duration of a flush or rewrite cycle.
func (r *Registry) projectKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.projects))
	for k := range r.projects {
		keys = append(keys, k)
	}
	return keys
}

func (r *Registry) project(key string) *project {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projects[key]
}

// View returns a read-only snapshot of a project's current state,
// windowed against now. The returned View borrows a freshly serialized
// copy of the writer's buffer, so it remains valid regardless of
// subsequent Ingest calls.
func (r *Registry) View(ctx context.Context, projectKey string, now uint32) (*ccta.View, error) {
	p, err := r.getOrCreate(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	buf := p.w.Finish()
	p.mu.Unlock()
	return ccta.Parse(buf, now)
}
