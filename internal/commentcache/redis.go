// SPDX-License-Identifier: AGPL-3.0-only
package commentcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "notbadfeed:comments:"

// RedisStore shares states between replicas. Each session is one JSON value
// whose TTL is refreshed on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

func key(sid string) string {
	return keyPrefix + sid
}

func (r *RedisStore) Load(ctx context.Context, sid string) (*State, error) {
	data, err := r.client.Get(ctx, key(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key(sid), err)
	}

	s := NewState()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode cached comments for %s: %w", sid, err)
	}
	if s.Comments == nil {
		s.Comments = NewState().Comments
	}
	if s.Visible == nil {
		s.Visible = NewState().Visible
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, sid string, s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cached comments for %s: %w", sid, err)
	}
	if err := r.client.Set(ctx, key(sid), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key(sid), err)
	}
	return nil
}

func (r *RedisStore) Drop(ctx context.Context, sid string) error {
	if err := r.client.Del(ctx, key(sid)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key(sid), err)
	}
	return nil
}
