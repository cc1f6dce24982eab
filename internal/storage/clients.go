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
	"sync"

	redis "github.com/redis/go-redis/v9"
)

// GoRedisEvaler is the production redisClient, backed by
// github.com/redis/go-redis/v9.
type GoRedisEvaler struct {
	c *redis.Client
}

// NewGoRedisEvaler connects to a Redis server at addr.
func NewGoRedisEvaler(addr string) *GoRedisEvaler {
	return &GoRedisEvaler{c: redis.NewClient(&redis.Options{Addr: addr})}
}

func (g *GoRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.c.Eval(ctx, script, keys, args...).Result()
}

func (g *GoRedisEvaler) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := g.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (g *GoRedisEvaler) Close() error {
	return g.c.Close()
}

// LoggingRedisEvaler is a dependency-free redisClient that logs
// scripted calls and serves Get/Put out of an in-process map, instead
// of talking to a real Redis server. Useful for running the demo/
// loadgen tooling without a broker, and mirrors redisPublishScript's
// idempotent-by-timestamp semantics closely enough to exercise
// RedisStore's Put path in a test without a live server.
type LoggingRedisEvaler struct {
	mu   sync.Mutex
	data map[string][]byte
	ts   map[string]int64
}

// NewLoggingRedisEvaler returns a ready-to-use in-process fake.
func NewLoggingRedisEvaler() *LoggingRedisEvaler {
	return &LoggingRedisEvaler{data: make(map[string][]byte), ts: make(map[string]int64)}
}

func (l *LoggingRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if len(keys) != 2 || len(args) != 2 {
		return nil, fmt.Errorf("logging redis evaler: unexpected script shape (keys=%d args=%d)", len(keys), len(args))
	}
	dataKey, tsKey := keys[0], keys[1]
	newData, ok := args[0].([]byte)
	if !ok {
		if s, ok := args[0].(string); ok {
			newData = []byte(s)
		} else {
			return nil, fmt.Errorf("logging redis evaler: arg[0] is %T, want []byte or string", args[0])
		}
	}
	newTs, ok := args[1].(int64)
	if !ok {
		return nil, fmt.Errorf("logging redis evaler: arg[1] is %T, want int64", args[1])
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	curTs, published := l.ts[tsKey]
	if !published || newTs >= curTs {
		l.data[dataKey] = newData
		l.ts[tsKey] = newTs
		fmt.Printf("[redis-demo] publish key=%s ts=%d bytes=%d\n", dataKey, newTs, len(newData))
		return int64(1), nil
	}
	fmt.Printf("[redis-demo] rejected stale publish key=%s ts=%d < %d\n", dataKey, newTs, curTs)
	return int64(0), nil
}

func (l *LoggingRedisEvaler) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}
