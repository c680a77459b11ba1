// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package deleteditems

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/syncd/internal/persistence/sqlite"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "deleteditems.db")
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := Open(context.Background(), db)
	require.NoError(t, err)
	return s
}

func TestSetSnapshot_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	xs := []Item{
		{ItemID: "a", CreationTime: now},
		{ItemID: "b", CreationTime: now.Add(time.Minute)},
	}
	require.NoError(t, s.SetSnapshot(ctx, xs))

	got, err := s.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]time.Time{}
	for _, it := range got {
		byID[it.ItemID] = it.CreationTime
	}
	require.True(t, byID["a"].Equal(now))
	require.True(t, byID["b"].Equal(now.Add(time.Minute)))
}

func TestSetSnapshot_ReplacesAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	require.NoError(t, s.SetSnapshot(ctx, []Item{{ItemID: "a", CreationTime: now}}))
	require.NoError(t, s.SetSnapshot(ctx, []Item{{ItemID: "b", CreationTime: now}}))

	got, err := s.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].ItemID)
}

func TestGetDeletedItems_RangeFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Second)

	require.NoError(t, s.AddDeletedItems(ctx, []DeletedItem{
		{ItemID: "old", CreationTime: base.Add(-2 * time.Hour), DeleteTime: base.Add(-time.Hour)},
		{ItemID: "straddles", CreationTime: base.Add(-time.Hour), DeleteTime: base.Add(time.Hour)},
		{ItemID: "future", CreationTime: base.Add(time.Hour), DeleteTime: base.Add(2 * time.Hour)},
	}))

	got, err := s.GetDeletedItems(ctx, base)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "straddles", got[0].ItemID)
}
