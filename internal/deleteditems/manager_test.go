// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package deleteditems

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManagerIsolatesProfiles(t *testing.T) {
	m := OpenManager(t.TempDir())
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	a, err := m.For(ctx, "profile-a")
	require.NoError(t, err)
	b, err := m.For(ctx, "profile-b")
	require.NoError(t, err)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, a.SetSnapshot(ctx, []Item{{ItemID: "x", CreationTime: now}}))

	gotA, err := a.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, gotA, 1)

	gotB, err := b.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, gotB)
}

func TestManagerCachesStore(t *testing.T) {
	m := OpenManager(t.TempDir())
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	s1, err := m.For(ctx, "profile-a")
	require.NoError(t, err)
	s2, err := m.For(ctx, "profile-a")
	require.NoError(t, err)
	require.Same(t, s1, s2)
}
