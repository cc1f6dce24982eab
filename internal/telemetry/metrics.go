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

// Package telemetry exposes process-level Prometheus metrics for the
// ingest path and the background flush/rewrite worker. Metrics are
// package-level globals, registered once at init, so any part of the
// process can record against them without threading a registry
// through every call.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ccta_runs_ingested_total",
		Help: "Total individual test runs accepted by Ingest, labeled by outcome",
	}, []string{"outcome"})

	BatchesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccta_batches_ingested_total",
		Help: "Total ingest batches (sessions) accepted",
	})

	RunsPerBatch = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ccta_runs_per_batch",
		Help:    "Distribution of test run counts per ingest batch",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	FlushDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ccta_flush_duration_seconds",
		Help:    "Wall time to serialize and persist one project's artifact",
		Buckets: prometheus.DefBuckets,
	})

	FlushErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccta_flush_errors_total",
		Help: "Total failed artifact flushes to the storage backend",
	})

	ArtifactBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ccta_artifact_bytes",
		Help: "Size in bytes of the most recently flushed artifact, by project",
	}, []string{"project"})

	ProjectsTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ccta_projects_tracked",
		Help: "Number of projects currently held in the in-process ingest registry",
	})

	RewriteRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccta_rewrite_runs_total",
		Help: "Total Rewrite (GC/compaction) passes executed by the background worker",
	})

	RewriteChangedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccta_rewrite_changed_total",
		Help: "Total Rewrite passes that actually rebuilt the artifact (changed=true)",
	})
)

func init() {
	prometheus.MustRegister(
		RunsIngestedTotal,
		BatchesIngestedTotal,
		RunsPerBatch,
		FlushDurationSeconds,
		FlushErrorsTotal,
		ArtifactBytes,
		ProjectsTracked,
		RewriteRunsTotal,
		RewriteChangedTotal,
	)
}

// ServeMetrics starts a dedicated HTTP server exposing /metrics on
// addr in the background. Use this when the main server doesn't
// already mount promhttp.Handler() on its own mux.
func ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
