// Package redis implements ports.AuditSink and ports.Locker on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

const (
	defaultPrefix = "datagen:audit:"
	// farFuture scores runs without a TTL (2100-01-01).
	farFuture = 4102444800
)

// AuditSink stores each run as a Redis list of JSON entries plus a ZSET index of runs.
type AuditSink struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures an AuditSink.
type Option func(*AuditSink)

// WithTTL expires a run's log ttl after its last append.
func WithTTL(ttl time.Duration) Option {
	return func(s *AuditSink) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *AuditSink) {
		s.prefix = prefix
	}
}

// New connects to Redis at address.
func New(address, password string, db int, opts ...Option) *AuditSink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a sink over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *AuditSink {
	s := &AuditSink{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuditSink) key(runID string) string {
	return s.prefix + "run:" + runID
}

func (s *AuditSink) indexKey() string {
	return s.prefix + "index"
}

// Append pushes the entry and refreshes the run's expiry in one pipeline.
func (s *AuditSink) Append(ctx context.Context, entry domain.AuditEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	score := float64(farFuture)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(entry.RunID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(entry.RunID), s.ttl)
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: entry.RunID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// Entries returns the run's entries in append order.
func (s *AuditSink) Entries(ctx context.Context, runID string) ([]domain.AuditEntry, error) {
	vals, err := s.client.LRange(ctx, s.key(runID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrRunNotFound
	}
	out := make([]domain.AuditEntry, 0, len(vals))
	for i, v := range vals {
		var e domain.AuditEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("corrupt audit entry %d of %s: %w", i, runID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Runs prunes expired runs from the index and returns the rest.
func (s *AuditSink) Runs(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired runs: %w", err)
	}
	runs, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Close closes the redis client.
func (s *AuditSink) Close() error {
	return s.client.Close()
}
