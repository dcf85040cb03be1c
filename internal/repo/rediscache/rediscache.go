// Package rediscache stores the uptime cache in a single Redis hash so several
// API replicas can share it.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hamed0406/serverprobe/internal/domain"
	"github.com/hamed0406/serverprobe/internal/repo"
)

var _ repo.UptimeStore = (*UptimeStore)(nil)

const DefaultKey = "serverprobe:uptime"

// NewClient parses a redis:// URL into a universal client.
func NewClient(redisURL string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cant parse redis url: %w", err)
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{opts.Addr},
		DB:           opts.DB,
		Username:     opts.Username,
		Password:     opts.Password,
		TLSConfig:    opts.TLSConfig,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}), nil
}

type UptimeStore struct {
	client redis.UniversalClient
	key    string
	now    func() time.Time
}

func New(client redis.UniversalClient, key string) *UptimeStore {
	if key == "" {
		key = DefaultKey
	}
	return &UptimeStore{client: client, key: key, now: time.Now}
}

func (s *UptimeStore) Record(ctx context.Context, key string, uptime float64) error {
	v := uptime
	b, err := json.Marshal(domain.UptimeRecord{Uptime: &v, ObservedAt: s.now()})
	if err != nil {
		return fmt.Errorf("marshal uptime for %q: %w", key, err)
	}
	if err := s.client.HSet(ctx, s.key, key, b).Err(); err != nil {
		return fmt.Errorf("redis hset %q: %w", key, err)
	}
	return nil
}

func (s *UptimeStore) Touch(ctx context.Context, key string) error {
	b, err := json.Marshal(domain.UptimeRecord{ObservedAt: s.now()})
	if err != nil {
		return fmt.Errorf("marshal placeholder for %q: %w", key, err)
	}
	if err := s.client.HSetNX(ctx, s.key, key, b).Err(); err != nil {
		return fmt.Errorf("redis hsetnx %q: %w", key, err)
	}
	return nil
}

// All skips values that fail to decode rather than failing the whole read.
func (s *UptimeStore) All(ctx context.Context) (map[string]domain.UptimeRecord, error) {
	vals, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	out := make(map[string]domain.UptimeRecord, len(vals))
	for k, raw := range vals {
		var rec domain.UptimeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out[k] = rec
	}
	return out, nil
}
