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
	"errors"
	"fmt"

	"ccta/pkg/ccta"
)

// RedisEvaler abstracts the one Redis primitive RedisStore needs
// beyond plain GET: scripted EVAL. Splitting it out lets tests drive
// RedisStore's publish logic against a fake client instead of a live
// server.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// redisPublishScript only replaces the stored artifact and its
// timestamp marker when the incoming artifact's writer clock is at
// least as new as whatever is already published. Two ingest worker
// flushes can race on the same project (a slow flush started before a
// faster, later one); without this check the slow one could land last
// and silently resurrect stale data.
const redisPublishScript = `
local dataKey = KEYS[1]
local tsKey = KEYS[2]
local newData = ARGV[1]
local newTs = tonumber(ARGV[2])
local curTs = tonumber(redis.call('GET', tsKey) or '-1')
if newTs >= curTs then
  redis.call('SET', dataKey, newData)
  redis.call('SET', tsKey, newTs)
  return 1
end
return 0
`

// redisClient is the full surface RedisStore needs from a client:
// scripted EVAL for the idempotent publish, plain GET for reads.
// GoRedisEvaler and LoggingRedisEvaler both satisfy it.
type redisClient interface {
	RedisEvaler
	Get(ctx context.Context, key string) ([]byte, error)
}

// RedisStore stores artifacts as plain Redis string values under
// artifact:<key>, with a companion artifact_ts:<key> marker recording
// the writer-clock timestamp of whatever is currently published. Get
// is a plain GET; Put is a scripted, idempotent-by-timestamp publish.
type RedisStore struct {
	client redisClient
	closer interface{ Close() error }
}

// NewRedisStore connects to a Redis server at addr.
func NewRedisStore(addr string) *RedisStore {
	ev := NewGoRedisEvaler(addr)
	return &RedisStore{client: ev, closer: ev}
}

// NewRedisStoreWithClient builds a RedisStore on top of a caller-supplied
// redisClient (a fake in tests, or a LoggingRedisEvaler for a
// no-real-Redis demo run).
func NewRedisStoreWithClient(client redisClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisArtifactKey(key string) string  { return fmt.Sprintf("artifact:%s", key) }
func redisTimestampKey(key string) string { return fmt.Sprintf("artifact_ts:%s", key) }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, redisArtifactKey(key))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	ts, ok := ccta.HeaderTimestamp(data)
	if !ok {
		return fmt.Errorf("redis put %s: artifact too short to carry a header timestamp", key)
	}
	keys := []string{redisArtifactKey(key), redisTimestampKey(key)}
	if _, err := r.client.Eval(ctx, redisPublishScript, keys, data, int64(ts)); err != nil {
		return fmt.Errorf("redis eval %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
