// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package guard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLock is the optional distributed single-writer backend: a `SET key
// owner NX PX ttl` lock, suitable when several daemon processes share a
// coordination store (spec.md §6's "only one connection at a time per
// daemon instance" extended across a multi-process test harness or fleet).
type RedisLock struct {
	client redis.Cmdable
}

// NewRedisLock wraps an existing redis client.
func NewRedisLock(client redis.Cmdable) *RedisLock {
	return &RedisLock{client: client}
}

type redisLease struct {
	owner   string
	expires time.Time
}

func (l *redisLease) Owner() string         { return l.owner }
func (l *redisLease) ExpiresAt() time.Time { return l.expires }

func (r *RedisLock) TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (Lease, bool, error) {
	ok, err := r.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return &redisLease{owner: owner, expires: time.Now().Add(ttl)}, true, nil
	}
	current, ok2, err := r.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok2 && current.Owner() == owner {
		// Already ours (restart case); refresh the TTL.
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return nil, false, err
		}
		return &redisLease{owner: owner, expires: time.Now().Add(ttl)}, true, nil
	}
	return current, false, nil
}

func (r *RedisLock) Renew(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	current, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current != owner {
		return false, nil
	}
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisLock) Release(ctx context.Context, key, owner string) error {
	current, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if current != owner {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}

func (r *RedisLock) Get(ctx context.Context, key string) (Lease, bool, error) {
	owner, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, false, err
	}
	return &redisLease{owner: owner, expires: time.Now().Add(ttl)}, true, nil
}

var _ Lock = (*RedisLock)(nil)
