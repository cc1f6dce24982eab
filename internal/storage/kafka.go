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
	"fmt"
	"time"
)

// Producer is a minimal abstraction over a Kafka client. We
// intentionally avoid importing a specific Kafka library here — the
// deployment wires in whichever one it already runs (segmentio/kafka-go,
// confluent-kafka-go, Shopify/sarama all satisfy this shape with a thin
// wrapper).
//
// Requirements:
//   - Idempotent producer on (enable.idempotence=true)
//   - key should be the project key, so the broker preserves per-project
//     ordering of artifact snapshots
type Producer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte) error
}

// KafkaAuditStore wraps a primary Store and publishes every flushed
// artifact to a Kafka topic before committing it to primary storage; if
// the publish fails, Put returns that error and primary is not written.
// The topic is an audit trail that downstream
// consumers (a data warehouse loader, a replica builder) can tail
// independently of the serving path. Reads are served entirely from
// primary; Kafka here is one-way, not a read path.
type KafkaAuditStore struct {
	primary        Store
	producer       Producer
	topic          string
	defaultTimeout time.Duration
}

// NewKafkaAuditStore wraps primary, publishing each Put to topic via
// producer before delegating to primary.
func NewKafkaAuditStore(primary Store, producer Producer, topic string) *KafkaAuditStore {
	return &KafkaAuditStore{primary: primary, producer: producer, topic: topic, defaultTimeout: 10 * time.Second}
}

func (k *KafkaAuditStore) Get(ctx context.Context, key string) ([]byte, error) {
	return k.primary.Get(ctx, key)
}

func (k *KafkaAuditStore) Put(ctx context.Context, key string, data []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && k.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.defaultTimeout)
		defer cancel()
	}
	if err := k.producer.Produce(ctx, k.topic, []byte(key), data); err != nil {
		return fmt.Errorf("kafka audit publish %s: %w", key, err)
	}
	return k.primary.Put(ctx, key, data)
}

func (k *KafkaAuditStore) Close() error {
	return k.primary.Close()
}

// LoggingProducer is a dependency-free Producer that logs what it
// would have sent. Useful for running the demo/loadgen tooling without
// a real broker.
type LoggingProducer struct{}

func (LoggingProducer) Produce(ctx context.Context, topic string, key []byte, value []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fmt.Printf("[kafka-audit] topic=%s key=%s bytes=%d\n", topic, string(key), len(value))
	return nil
}
