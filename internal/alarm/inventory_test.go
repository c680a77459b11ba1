// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package alarm

import (
	"container/heap"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/persistence/sqlite"
	"github.com/stretchr/testify/require"
)

func openTestInventory(t *testing.T) *Inventory {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "alarms.db")
	db, err := sqlite.Open(dbPath, sqlite.Config{BusyTimeout: time.Second, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	inv, err := Open(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(inv.Close)
	return inv
}

func TestAdd_FiresInOrder(t *testing.T) {
	inv := openTestInventory(t)
	ctx := context.Background()
	base := time.Now()

	_, err := inv.Add(ctx, "P10", base.Add(30*time.Millisecond))
	require.NoError(t, err)
	_, err = inv.Add(ctx, "P20", base.Add(60*time.Millisecond))
	require.NoError(t, err)
	_, err = inv.Add(ctx, "P15", base.Add(45*time.Millisecond))
	require.NoError(t, err)

	var order []string
	for i := 0; i < 3; i++ {
		select {
		case a := <-inv.Fired():
			order = append(order, a.Profile)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for alarm")
		}
	}
	require.Equal(t, []string{"P10", "P15", "P20"}, order)
}

func TestRemoveProfile_ClearsArmedAlarm(t *testing.T) {
	inv := openTestInventory(t)
	ctx := context.Background()

	_, err := inv.Add(ctx, "P1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, inv.Len())

	require.NoError(t, inv.RemoveProfile(ctx, "P1"))
	require.Equal(t, 0, inv.Len())
}

func TestOnlyOneEntryPerProfileEnforcedByCaller(t *testing.T) {
	// AlarmInventory itself allows two inserts for the same profile; the
	// scheduler is responsible for removing any prior alarm first. This
	// test documents that boundary rather than asserting de-duplication.
	inv := openTestInventory(t)
	ctx := context.Background()

	_, err := inv.Add(ctx, "P1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = inv.Add(ctx, "P1", time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, inv.Len())
}

// TestOnTimerFire_DeliversAllElapsedBeforeRearming is spec.md §8 scenario
// S5's suspend race: the head has already fallen behind now when the timer
// fires, so every elapsed alarm is delivered before re-arming. Two alarms are seeded already past
// due (as a device coming back from suspend would find them) and a third
// still in the future; the single resulting timer fire must deliver both
// due alarms, in FireAt order, before arming the timer for the third.
func TestOnTimerFire_DeliversAllElapsedBeforeRearming(t *testing.T) {
	inv := openTestInventory(t)
	now := time.Now()

	inv.mu.Lock()
	heap.Push(&inv.heap, model.Alarm{ID: 1, FireAt: now.Add(-100 * time.Millisecond), Profile: "P10"})
	heap.Push(&inv.heap, model.Alarm{ID: 2, FireAt: now.Add(-50 * time.Millisecond), Profile: "P20"})
	heap.Push(&inv.heap, model.Alarm{ID: 3, FireAt: now.Add(200 * time.Millisecond), Profile: "P30"})
	inv.rearmLocked()
	inv.mu.Unlock()

	var delivered []string
	for i := 0; i < 2; i++ {
		select {
		case a := <-inv.Fired():
			delivered = append(delivered, a.Profile)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for the already-elapsed alarms")
		}
	}
	require.Equal(t, []string{"P10", "P20"}, delivered, "both already-elapsed alarms deliver together, in FireAt order")

	select {
	case a := <-inv.Fired():
		t.Fatalf("P30 delivered too early: %v", a)
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case a := <-inv.Fired():
		require.Equal(t, "P30", a.Profile)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the re-armed alarm")
	}
}
