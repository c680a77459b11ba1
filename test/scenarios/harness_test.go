// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scenarios_test drives a real orchestrator.Synchronizer wired to
// an in-memory bus, booker, queue, scheduler and a fake plugin runner, to
// exercise the end-to-end scenarios spec.md §8 names (S1-S6) against actual
// component wiring rather than mocked collaborators. Grounded on teacher's
// integration-level testkit pattern (internal/domain/session/manager/
// testkit), adapted to drive orchestrator.Synchronizer directly instead of
// an HTTP surface.
package scenarios_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/syncd/internal/backup"
	"github.com/ManuGH/syncd/internal/booker"
	"github.com/ManuGH/syncd/internal/bus"
	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/orchestrator"
	"github.com/ManuGH/syncd/internal/pluginrunner/fake"
	"github.com/ManuGH/syncd/internal/queue"
	"github.com/ManuGH/syncd/internal/retry"
	"github.com/ManuGH/syncd/internal/scheduler"
	"github.com/ManuGH/syncd/internal/soc"
)

// memProfileStore is a minimal in-memory orchestrator.ProfileStore double,
// mirroring the one in internal/orchestrator's own white-box tests since
// this package cannot reach that unexported type.
type memProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
}

func newMemProfileStore(profiles ...model.Profile) *memProfileStore {
	m := &memProfileStore{profiles: make(map[string]model.Profile)}
	for _, p := range profiles {
		m.profiles[p.Name] = p
	}
	return m
}

func (m *memProfileStore) Get(name string) (model.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[name]
	return p, ok
}

func (m *memProfileStore) All() []model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out
}

func (m *memProfileStore) Put(p model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Name] = p
	return nil
}

func (m *memProfileStore) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, name)
	return nil
}

// harness bundles one fully-wired Synchronizer plus the collaborators a
// scenario test needs to poke directly (the fake runner, the SOC
// coordinator, the backup coordinator, the scheduler).
type harness struct {
	t        *testing.T
	sync     *orchestrator.Synchronizer
	runner   *fake.Runner
	eventBus *bus.MemoryBus
	soc      *soc.Coordinator
	backup   *backup.Coordinator
	sched    *scheduler.Scheduler
	cancel   context.CancelFunc
}

// newHarness wires a Synchronizer the same way cmd/syncd does (see
// cmd/syncd/main.go), minus persistence (profile store, alarm db) that
// these scenarios don't need: the scheduler here drives an in-memory
// AlignedSlotWaker rather than the sqlite-backed AlarmInventory fallback,
// since none of these scenarios depend on the alarm database (the
// inventory's own ordering tests live in internal/alarm/inventory_test.go).
func newHarness(t *testing.T, profiles *memProfileStore, coalesce time.Duration) *harness {
	t.Helper()

	eventBus := bus.NewMemoryBus()
	book := booker.New()
	q := queue.New()
	retryPolicy := retry.NewPolicy(3)
	wake := scheduler.NewAlignedSlotWaker(time.Millisecond)
	sched := scheduler.New(wake, true)
	backupCoord := backup.New()
	runner := fake.New()

	var syncer *orchestrator.Synchronizer
	socCoord := soc.New(func(profileName string) {
		if syncer != nil {
			syncer.SOCTrigger(profileName)
		}
	})

	syncer = orchestrator.New(orchestrator.Config{
		Profiles:                       profiles,
		Bus:                            eventBus,
		Booker:                         book,
		Queue:                          q,
		Scheduler:                      sched,
		Backup:                         backupCoord,
		Runners:                        runner,
		Retry:                          retryPolicy,
		SOCCancel:                      socCoord.RemoveProfile,
		AllowScheduledSyncOverCellular: true,
		ProfileChangeCoalesce:          coalesce,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = syncer.Run(ctx) }()
	t.Cleanup(cancel)

	return &harness{
		t:        t,
		sync:     syncer,
		runner:   runner,
		eventBus: eventBus,
		soc:      socCoord,
		backup:   backupCoord,
		sched:    sched,
		cancel:   cancel,
	}
}

// statusEvents subscribes to the syncStatus topic and returns a function
// that drains whatever has arrived so far, in order.
func (h *harness) statusEvents(ctx context.Context) func() []model.Event {
	h.t.Helper()
	sub, err := h.eventBus.Subscribe(ctx, string(model.EventSyncStatus))
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = sub.Close() })

	var mu sync.Mutex
	var got []model.Event
	go func() {
		for ev := range sub.C() {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		}
	}()

	return func() []model.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]model.Event(nil), got...)
	}
}

func scheduledProfile(name, clientProfile, storage string, dest model.DestinationType) model.Profile {
	return model.Profile{
		Name:              name,
		Enabled:           true,
		SyncType:          model.SyncScheduled,
		DestinationType:   dest,
		ClientProfileName: clientProfile,
		StorageNames:      []string{storage},
		Schedule:          model.Schedule{Interval: time.Hour},
	}
}

func manualProfile(name, clientProfile string, storages ...string) model.Profile {
	return model.Profile{
		Name:              name,
		Enabled:           true,
		SyncType:          model.SyncManual,
		DestinationType:   model.DestinationDevice,
		ClientProfileName: clientProfile,
		StorageNames:      storages,
	}
}

