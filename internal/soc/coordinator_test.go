// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package soc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAddProfile_FiresAfterDelay(t *testing.T) {
	var fired atomic.Int32
	c := New(func(string) { fired.Add(1) })

	c.AddProfile("P", 10*time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	require.False(t, c.Pending("P"))
}

func TestAddProfile_SecondAddIsNoOp(t *testing.T) {
	c := New(func(string) {})
	c.AddProfile("P", time.Hour)
	c.AddProfile("P", time.Millisecond) // must not replace the first timer
	require.True(t, c.Pending("P"))
}

func TestRemoveProfile_PreventsFire(t *testing.T) {
	var fired atomic.Int32
	c := New(func(string) { fired.Add(1) })

	c.AddProfile("P", 10*time.Millisecond)
	c.RemoveProfile("P")

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}

// TestCoordinator_NoGoroutineLeak guards the invariant that a fired or
// cancelled debounce timer leaves nothing running behind it — time.AfterFunc
// spawns a goroutine only at fire time, so both outcomes must leave the
// runtime clean for RemoveProfile to be a safe no-op on a long-gone timer.
func TestCoordinator_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var fired atomic.Int32
	c := New(func(string) { fired.Add(1) })

	c.AddProfile("fires", 5*time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)

	c.AddProfile("cancelled", time.Hour)
	c.RemoveProfile("cancelled")
}
