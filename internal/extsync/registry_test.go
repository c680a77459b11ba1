// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extsync

import (
	"testing"
	"time"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecompute_BackupActiveForcesFalse(t *testing.T) {
	r := openTestRegistry(t)
	p := &model.Profile{Name: "P", SyncExternallyEnabled: true}

	tr, err := r.Recompute(p, true, time.Now())
	require.NoError(t, err)
	require.True(t, tr.Changed)
	require.False(t, tr.Value)
}

func TestRecompute_EnabledWins(t *testing.T) {
	r := openTestRegistry(t)
	p := &model.Profile{Name: "P", SyncExternallyEnabled: true}

	tr, err := r.Recompute(p, false, time.Now())
	require.NoError(t, err)
	require.True(t, tr.Changed)
	require.True(t, tr.Value)

	tr, err = r.Recompute(p, false, time.Now())
	require.NoError(t, err)
	require.False(t, tr.Changed)
	require.True(t, tr.Value)
}

func TestRecompute_NeitherFlagRemovesEntry(t *testing.T) {
	r := openTestRegistry(t)
	p := &model.Profile{Name: "P", SyncExternallyEnabled: true}
	_, err := r.Recompute(p, false, time.Now())
	require.NoError(t, err)

	p.SyncExternallyEnabled = false
	tr, err := r.Recompute(p, false, time.Now())
	require.NoError(t, err)
	require.True(t, tr.Removed)
	require.True(t, tr.Changed)

	_, found := r.Get("P")
	require.False(t, found)
}
