// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) redis.Cmdable {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLock_TryAcquireExclusive(t *testing.T) {
	ctx := context.Background()
	lock := NewRedisLock(newTestRedis(t))

	lease, ok, err := lock.TryAcquire(ctx, "guard:daemon", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "owner-a", lease.Owner())

	_, ok, err = lock.TryAcquire(ctx, "guard:daemon", "owner-b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisLock_RenewAndRelease(t *testing.T) {
	ctx := context.Background()
	lock := NewRedisLock(newTestRedis(t))

	_, ok, err := lock.TryAcquire(ctx, "guard:daemon", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	renewed, err := lock.Renew(ctx, "guard:daemon", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, renewed)

	renewed, err = lock.Renew(ctx, "guard:daemon", "owner-b", time.Minute)
	require.NoError(t, err)
	require.False(t, renewed)

	require.NoError(t, lock.Release(ctx, "guard:daemon", "owner-a"))

	_, ok, err = lock.Get(ctx, "guard:daemon")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisLock_ReacquireSameOwnerAfterRestart(t *testing.T) {
	ctx := context.Background()
	lock := NewRedisLock(newTestRedis(t))

	_, ok, err := lock.TryAcquire(ctx, "guard:daemon", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryAcquire(ctx, "guard:daemon", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "same owner should be able to reacquire its own lease")
}
