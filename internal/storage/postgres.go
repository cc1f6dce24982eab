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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres schema (reference):
//
// CREATE TABLE IF NOT EXISTS artifacts (
//   project_key TEXT PRIMARY KEY,
//   data        BYTEA NOT NULL,
//   updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
// );

// PostgresStore stores artifacts in a single table, upserting on every
// flush. db is caller-owned: PostgresStore never opens or closes the
// underlying connection pool itself except via Close.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-open *sql.DB. The caller is
// responsible for registering a driver and opening db; this package
// never imports one, so it stays free to run against whichever
// Postgres driver the deployment already uses.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM artifacts WHERE project_key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return data, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO artifacts(project_key, data, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (project_key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		key, data)
	if err != nil {
		return fmt.Errorf("postgres put %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
