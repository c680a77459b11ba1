// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package soc implements SyncOnChangeCoordinator: a per-profile debounce
// timer that coalesces rapid storage-change notifications into a single
// syncNow signal (spec.md §4.5).
package soc

import (
	"sync"
	"time"
)

// Coordinator holds at most one pending timer per profile. Firing a timer
// dequeues its entry atomically so a concurrent fire/cancel cannot both
// deliver for the same profile.
type Coordinator struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	onFire  func(profileName string)
	afterFn func(d time.Duration, f func()) *time.Timer
}

// New returns a Coordinator that invokes onFire(profileName) when a
// profile's debounce timer elapses.
func New(onFire func(profileName string)) *Coordinator {
	return &Coordinator{
		pending: make(map[string]*time.Timer),
		onFire:  onFire,
		afterFn: time.AfterFunc,
	}
}

// AddProfile arms a debounce timer for profileName with the given delay.
// Adding a profile that already has a pending timer is a no-op — the
// existing timer keeps its original deadline.
func (c *Coordinator) AddProfile(profileName string, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[profileName]; exists {
		return
	}
	c.pending[profileName] = c.afterFn(delay, func() { c.fire(profileName) })
}

// fire is invoked off the timer goroutine. It atomically removes the
// pending entry before calling onFire, so RemoveProfile racing the timer
// cannot observe a stale entry or double-deliver.
func (c *Coordinator) fire(profileName string) {
	c.mu.Lock()
	_, stillPending := c.pending[profileName]
	delete(c.pending, profileName)
	c.mu.Unlock()

	if stillPending && c.onFire != nil {
		c.onFire(profileName)
	}
}

// RemoveProfile cancels any pending timer for profileName. Cancellation
// guarantees the syncNow signal will not subsequently be emitted for that
// entry, even if the timer had already fired and is racing fire() above.
func (c *Coordinator) RemoveProfile(profileName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.pending[profileName]; ok {
		t.Stop()
		delete(c.pending, profileName)
	}
}

// Pending reports whether profileName currently has an armed timer.
func (c *Coordinator) Pending(profileName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[profileName]
	return ok
}
