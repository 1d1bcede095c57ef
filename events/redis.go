package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 24 * time.Hour

// RedisEventStore is a Redis-backed EventStore for distributed deployments
// where multiple engine processes feed one event log. Each run's events live
// in a list; a companion set of event ids keeps Append idempotent.
type RedisEventStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisEventStore.
type RedisOption func(*RedisEventStore)

// WithTTL sets the time-to-live for run event logs.
// Default is 24 hours. Set to 0 for no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisEventStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for Redis keys.
// Default is "simengine".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisEventStore) {
		s.prefix = prefix
	}
}

// NewRedisEventStore creates a Redis-backed event store.
//
// Example:
//
//	store := NewRedisEventStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithTTL(24 * time.Hour),
//	)
func NewRedisEventStore(client *redis.Client, opts ...RedisOption) *RedisEventStore {
	store := &RedisEventStore{
		client: client,
		ttl:    defaultRedisTTL,
		prefix: "simengine",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisEventStore) logKey(runID string) string {
	return fmt.Sprintf("%s:events:%s", s.prefix, runID)
}

func (s *RedisEventStore) idsKey(runID string) string {
	return fmt.Sprintf("%s:eventids:%s", s.prefix, runID)
}

// Append adds an event to the run's log. Appending an id that is already
// recorded is a no-op, so a retried step never double-records.
func (s *RedisEventStore) Append(ctx context.Context, event *Event) error {
	if event.RunID == "" {
		return fmt.Errorf("event has no run ID")
	}
	if event.ID == "" {
		return fmt.Errorf("event has no ID")
	}

	added, err := s.client.SAdd(ctx, s.idsKey(event.RunID), event.ID).Result()
	if err != nil {
		return fmt.Errorf("redis sadd failed: %w", err)
	}
	if added == 0 {
		return nil // id already present
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.logKey(event.RunID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.logKey(event.RunID), s.ttl)
		pipe.Expire(ctx, s.idsKey(event.RunID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// Query returns events matching the filter in append order.
func (s *RedisEventStore) Query(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil || filter.RunID == "" {
		return nil, fmt.Errorf("query requires a run ID")
	}

	raw, err := s.client.LRange(ctx, s.logKey(filter.RunID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	var out []*Event
	for _, item := range raw {
		var event Event
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		if filter.Matches(&event) {
			out = append(out, &event)
			if filter.Limit > 0 && len(out) >= filter.Limit {
				break
			}
		}
	}
	return out, nil
}

// Close closes the underlying Redis client.
func (s *RedisEventStore) Close() error {
	return s.client.Close()
}
