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

// Package storage provides durable adapters for the compiled CCTA
// artifact. Unlike a delta/commit log, an artifact is a complete,
// self-contained snapshot (see pkg/ccta), so a backend only needs to
// support whole-blob get/put keyed by project. Implementations must be
// safe to retry: by default Put overwrites unconditionally and the
// last call wins, since the ingest worker is the only caller and never
// has two flushes for the same project in flight at once. RedisStore
// is the exception: it guards Put with the artifact's own writer-clock
// timestamp, so a delayed flush can never clobber a newer one that
// raced ahead of it.
package storage

import "context"

// ErrNotFound is returned by Get when the project has no stored
// artifact yet.
var ErrNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "storage: project not found" }

// Store persists and retrieves a project's compiled artifact bytes.
type Store interface {
	// Get returns the most recently stored artifact for key, or
	// ErrNotFound if none exists.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put overwrites the stored artifact for key.
	Put(ctx context.Context, key string, data []byte) error
	// Close releases any resources the backend holds (connections,
	// background goroutines). Safe to call on a Store that never
	// allocated any.
	Close() error
}
