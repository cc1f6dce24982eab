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

// Package main provides the entry point for the CI test analytics
// server. It orchestrates the ingest registry, the background
// flush/rewrite worker, the HTTP API, and (optionally) Prometheus
// metrics, with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ccta/internal/api"
	"ccta/internal/ingest"
	"ccta/internal/storage"
	"ccta/internal/telemetry"
)

func main() {
	numDays := flag.Int("num_days", 90, "window width in days artifacts are created with")
	httpAddr := flag.String("http_addr", ":8080", "HTTP listen address (e.g., :8080)")
	metricsAddr := flag.String("metrics_addr", "", "if non-empty, expose Prometheus /metrics on this address (e.g., :9090)")

	storageAdapter := flag.String("storage", "memory", "artifact storage backend: memory|redis")
	redisAddr := flag.String("redis_addr", "", "Redis address; when -storage=redis and this is empty, falls back to a dependency-free logging client")
	postgresDSN := flag.String("postgres_dsn", "", "if non-empty, use Postgres instead of -storage (requires a registered database/sql driver to be imported)")
	kafkaTopic := flag.String("kafka_topic", "", "Kafka topic the audit tap publishes every artifact flush to via a logging producer when -kafka_tap is set (empty selects ccta-artifacts)")
	enableKafkaTap := flag.Bool("kafka_tap", false, "enable the Kafka audit tap alongside the primary storage backend")

	flushInterval := flag.Duration("flush_interval", 5*time.Second, "how often the background worker persists dirty project artifacts")
	rewriteInterval := flag.Duration("rewrite_interval", 10*time.Minute, "how often the background worker runs Rewrite to GC aged-out rows")
	rewriteThreshold := flag.Int("rewrite_threshold", -1, "dead-row count above which Rewrite rebuilds an artifact; negative selects Rewrite's own default, 0 rewrites on any dead row")
	flag.Parse()

	if *postgresDSN != "" {
		fmt.Println("ccta-server: -postgres_dsn was set, but this binary does not import a concrete database/sql driver; construct storage.NewPostgresStore from a caller that does, or use -storage=memory|redis")
		os.Exit(2)
	}

	store, err := storage.Build(*storageAdapter, storage.Options{
		RedisAddr:      *redisAddr,
		KafkaTopic:     *kafkaTopic,
		EnableKafkaTap: *enableKafkaTap,
	})
	if err != nil {
		log.Fatalf("storage.Build: %v", err)
	}

	if *metricsAddr != "" {
		telemetry.ServeMetrics(*metricsAddr)
	}

	reg := ingest.NewRegistry(store, *numDays)
	worker := ingest.NewWorker(reg, *flushInterval, *rewriteInterval, *numDays, *rewriteThreshold)
	worker.Start()

	srv := api.NewServer(reg, *numDays)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("ccta server listening on %s\n", *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("could not listen on %s: %v", *httpAddr, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down server...")

	worker.Stop()

	if err := store.Close(); err != nil {
		log.Printf("storage close: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	fmt.Println("Server gracefully stopped.")
}
