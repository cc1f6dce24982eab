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

package storage

import "fmt"

// Options configures the backends Build can construct.
type Options struct {
	RedisAddr      string
	KafkaTopic     string
	EnableKafkaTap bool
}

// Build constructs a Store based on a string selector:
//   - "memory" (default): in-process, non-durable
//   - "redis": uses Options.RedisAddr if set, otherwise falls back to a
//     dependency-free in-process fake for demo/loadgen runs
//   - "postgres": not wired here — callers with a live *sql.DB should
//     construct NewPostgresStore directly, since opening a connection
//     pool is a deployment-specific concern this factory shouldn't own
//
// Any other selector, including "kafka", is an error. The Kafka audit tap
// is not a selector: setting Options.EnableKafkaTap wraps whichever
// backend was selected in a KafkaAuditStore.
func Build(adapter string, opts Options) (Store, error) {
	var base Store
	switch adapter {
	case "", "memory":
		base = NewMemoryStore()
	case "redis":
		if opts.RedisAddr != "" {
			base = NewRedisStore(opts.RedisAddr)
		} else {
			// Dependency-free fallback: an in-process fake exercising the
			// same idempotent-by-timestamp publish path, for running the
			// demo/loadgen tooling without a real Redis server.
			base = NewRedisStoreWithClient(NewLoggingRedisEvaler())
		}
	case "postgres":
		return nil, fmt.Errorf("storage: postgres adapter requires a caller-supplied *sql.DB; construct NewPostgresStore directly")
	default:
		return nil, fmt.Errorf("storage: unknown adapter %q", adapter)
	}

	if opts.EnableKafkaTap {
		topic := opts.KafkaTopic
		if topic == "" {
			topic = "ccta-artifacts"
		}
		base = NewKafkaAuditStore(base, LoggingProducer{}, topic)
	}
	return base, nil
}
