// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scheduler implements SyncScheduler (spec.md §4.3): it decides
// when to wake for a given profile and registers that intention with one of
// two wake back-ends. The aligned-slot back-end models an OS keepalive
// service that coalesces wake-ups falling in the same coarse time slot; the
// AlarmInventory back-end is the persisted-min-heap fallback used when the
// platform offers no such coalescing, mirroring msyncd/SyncScheduler.cpp's
// USE_KEEPALIVE vs USE_IPHB compile-time split as a runtime interface.
package scheduler

import (
	"context"
	"time"

	"github.com/google/renameio/v2"
	"golang.org/x/time/rate"

	"github.com/ManuGH/syncd/internal/model"
)

// WakeBackend is the abstract wake-up service from spec.md §4.3.
// AlignedSlotWaker coalesces wake-ups falling in the same coarse slot;
// AlarmBackend arms each wake at its exact instant.
type WakeBackend interface {
	// Arm schedules a wake for profileName at or after delay has elapsed.
	// Arming a profile that already has a pending wake replaces it.
	Arm(profileName string, delay time.Duration)
	// Disarm cancels any pending wake for profileName.
	Disarm(profileName string)
	// Fired returns the channel on which due profile names are delivered.
	Fired() <-chan string
	// Name identifies the backend for metrics labeling.
	Name() string
}

// Scheduler computes per-profile next-fire instants and keeps exactly one
// backend wake armed per scheduled profile.
type Scheduler struct {
	backend       WakeBackend
	allowCellular bool

	rushGuard *rate.Limiter // storm guard for rush-switch re-arms

	snapshotPath string // optional debug snapshot of computed next-fire times
	retries      map[string]time.Time
}

// New returns a Scheduler driving backend. allowCellular is the daemon's
// "allow-scheduled-sync-over-cellular" policy flag consulted by
// Profile.AllowsInternetType and, indirectly, by the orchestrator's
// acceptScheduledSync.
func New(backend WakeBackend, allowCellular bool) *Scheduler {
	return &Scheduler{
		backend:       backend,
		allowCellular: allowCellular,
		rushGuard:     rate.NewLimiter(rate.Every(time.Second), 4),
		retries:       make(map[string]time.Time),
	}
}

// Fired proxies the backend's fire channel.
func (s *Scheduler) Fired() <-chan string {
	return s.backend.Fired()
}

// NextFire implements spec.md §4.3's algorithm: unarm and return the zero
// value for disabled/manual profiles; otherwise compute the schedule's next
// fire instant, arm the backend for it (or, inside a rush window with a
// separate external-during-rush policy, skip arming the sync itself but
// still arm a rush-switch re-evaluation timer), and return the instant.
func (s *Scheduler) NextFire(p *model.Profile, now time.Time) (time.Time, bool) {
	if !p.Enabled || p.SyncType != model.SyncScheduled {
		s.backend.Disarm(p.Name)
		return time.Time{}, false
	}

	if retryAt, ok := s.retries[p.Name]; ok {
		delete(s.retries, p.Name)
		s.arm(p.Name, retryAt, now)
		return retryAt, true
	}

	t := p.Schedule.NextFire(p.LastSyncTime, now)

	if p.Schedule.HasRushWindow() && p.Schedule.InRushWindow(t) && p.SyncExternallyDuringRush {
		if switchAt, ok := p.Schedule.NextRushSwitch(now); ok {
			s.arm(p.Name+"#rush-switch", switchAt, now)
		}
		s.backend.Disarm(p.Name)
		return t, true
	}

	s.arm(p.Name, t, now)
	return t, true
}

func (s *Scheduler) arm(profileName string, t, now time.Time) {
	delay := t.Sub(now)
	if delay < time.Second {
		delay = time.Second
	}
	s.backend.Arm(profileName, delay)
}

// AddProfileForSyncRetry overrides the schedule-derived next-fire with an
// explicit retry instant, consumed by the following NextFire call for the
// profile (spec.md §4.3 "addProfileForSyncRetry").
func (s *Scheduler) AddProfileForSyncRetry(profileName string, when time.Time) {
	s.retries[profileName] = when
}

// Unarm cancels any pending wake for a profile, used on profile removal or
// disable.
func (s *Scheduler) Unarm(profileName string) {
	s.backend.Disarm(profileName)
	s.backend.Disarm(profileName + "#rush-switch")
	delete(s.retries, profileName)
}

// AllowRushRearm throttles how often a rush-switch boundary may re-trigger
// re-evaluation when many profiles share the same rush window, guarding
// against a thundering-herd of simultaneous rearm calls.
func (s *Scheduler) AllowRushRearm() bool {
	return s.rushGuard.Allow()
}

// WithSnapshot sets the path WriteSnapshot writes its debug snapshot of
// next-fire times to, using atomic renameio writes so readers never observe
// a partial file. NextFire does not write the snapshot itself.
func (s *Scheduler) WithSnapshot(path string) *Scheduler {
	s.snapshotPath = path
	return s
}

// WriteSnapshot persists the supplied profileName -> next-fire map to the
// configured snapshot path, if any.
func (s *Scheduler) WriteSnapshot(ctx context.Context, fires map[string]time.Time) error {
	if s.snapshotPath == "" {
		return nil
	}
	var buf []byte
	buf = append(buf, '{')
	first := true
	for name, t := range fires {
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = append(buf, '"')
		buf = append(buf, name...)
		buf = append(buf, `":"`...)
		buf = append(buf, t.UTC().Format(time.RFC3339)...)
		buf = append(buf, '"')
	}
	buf = append(buf, '}')
	return renameio.WriteFile(s.snapshotPath, buf, 0o644)
}
