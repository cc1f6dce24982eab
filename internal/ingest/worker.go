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

package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ccta/internal/telemetry"
	"ccta/pkg/ccta"
)

// Worker runs the two periodic background tasks a Registry needs:
// flushing dirty projects to durable storage, and running Rewrite to
// compact artifacts and garbage-collect rows that have aged out of the
// window.
type Worker struct {
	reg              *Registry
	flushInterval    time.Duration
	rewriteInterval  time.Duration
	rewriteNumDays   int
	rewriteThreshold int
	stopChan         chan struct{}
	wg               sync.WaitGroup
	stopped          uint32
}

// NewWorker configures a Worker over reg. rewriteNumDays is the window
// width Rewrite should resize artifacts to (typically reg's own
// numDays, to just GC without resizing); rewriteThreshold < 0 selects
// Rewrite's own default, and 0 requests a rewrite on any dead row.
func NewWorker(reg *Registry, flushInterval, rewriteInterval time.Duration, rewriteNumDays, rewriteThreshold int) *Worker {
	return &Worker{
		reg:              reg,
		flushInterval:    flushInterval,
		rewriteInterval:  rewriteInterval,
		rewriteNumDays:   rewriteNumDays,
		rewriteThreshold: rewriteThreshold,
		stopChan:         make(chan struct{}),
	}
}

// Start launches the background goroutines.
func (w *Worker) Start() {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.flushLoop()
	}()
	go func() {
		defer w.wg.Done()
		w.rewriteLoop()
	}()
}

// Stop signals both loops to exit, runs one final flush, and waits for
// them to return. Safe to call more than once.
func (w *Worker) Stop() {
	if !atomic.CompareAndSwapUint32(&w.stopped, 0, 1) {
		return
	}
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) flushLoop() {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runFlushCycle()
		case <-w.stopChan:
			w.runFlushCycle()
			return
		}
	}
}

// runFlushCycle serializes and persists every dirty project. A flush
// that fails leaves the project dirty so the next cycle retries it.
func (w *Worker) runFlushCycle() {
	for _, key := range w.reg.projectKeys() {
		p := w.reg.project(key)
		if p == nil {
			continue
		}

		p.mu.Lock()
		if !p.dirty {
			p.mu.Unlock()
			continue
		}
		start := time.Now()
		buf := p.w.Finish()
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := w.reg.store.Put(ctx, key, buf)
		cancel()

		if err != nil {
			telemetry.FlushErrorsTotal.Inc()
			fmt.Printf("ccta: flush %s failed: %v\n", key, err)
			continue
		}

		p.mu.Lock()
		p.dirty = false
		p.mu.Unlock()

		telemetry.FlushDurationSeconds.Observe(time.Since(start).Seconds())
		telemetry.ArtifactBytes.WithLabelValues(key).Set(float64(len(buf)))
	}
}

func (w *Worker) rewriteLoop() {
	ticker := time.NewTicker(w.rewriteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runRewriteCycle()
		case <-w.stopChan:
			return
		}
	}
}

// runRewriteCycle compacts every project's artifact, dropping rows
// that have aged out of the window and reusing Rewrite's own
// no-op-below-threshold logic to avoid needless rebuilds.
func (w *Worker) runRewriteCycle() {
	now := uint32(time.Now().Unix())
	for _, key := range w.reg.projectKeys() {
		p := w.reg.project(key)
		if p == nil {
			continue
		}

		p.mu.Lock()
		buf := p.w.Finish()
		p.mu.Unlock()

		v, err := ccta.Parse(buf, now)
		if err != nil {
			fmt.Printf("ccta: rewrite parse %s failed: %v\n", key, err)
			continue
		}

		rw, changed, err := ccta.Rewrite(v, now, w.rewriteNumDays, w.rewriteThreshold)
		telemetry.RewriteRunsTotal.Inc()
		if err != nil {
			fmt.Printf("ccta: rewrite %s failed: %v\n", key, err)
			continue
		}
		if !changed {
			continue
		}

		telemetry.RewriteChangedTotal.Inc()
		p.mu.Lock()
		p.w = rw
		p.dirty = true
		p.mu.Unlock()
	}
}
