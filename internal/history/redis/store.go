// Package redis stores history in a Redis list so several gateways on one
// site can share it.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ehopa/internal/registration/models"
)

const defaultKey = "ehopa_history"

// Store keeps records as JSON list elements, head first.
type Store struct {
	client *redis.Client
	key    string
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, key: defaultKey}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns the whole list, newest first.
func (s *Store) Get(ctx context.Context) ([]models.Record, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", s.key, err)
	}
	out := make([]models.Record, 0, len(raw))
	for _, item := range raw {
		var rec models.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Put replaces the list atomically.
func (s *Store) Put(ctx context.Context, records []models.Record) error {
	values := make([]any, 0, len(records))
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		values = append(values, b)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.RPush(ctx, s.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace %s: %w", s.key, err)
	}
	return nil
}

// Append prepends record.
func (s *Store) Append(ctx context.Context, record models.Record) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.client.LPush(ctx, s.key, b).Err()
}
