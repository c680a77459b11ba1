// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/syncd/internal/booker"
	"github.com/ManuGH/syncd/internal/bus"
	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/pluginrunner"
	"github.com/ManuGH/syncd/internal/pluginrunner/fake"
	"github.com/ManuGH/syncd/internal/queue"
)

// memProfileStore is a minimal in-memory ProfileStore test double.
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

func testProfile(name, clientProfile string, storages ...string) model.Profile {
	return model.Profile{
		Name:              name,
		Enabled:           true,
		SyncType:          model.SyncManual,
		DestinationType:   model.DestinationDevice,
		ClientProfileName: clientProfile,
		StorageNames:      storages,
	}
}

func newTestSynchronizer(profiles *memProfileStore, runner pluginrunner.Runner) *Synchronizer {
	return New(Config{
		Profiles: profiles,
		Bus:      bus.NewMemoryBus(),
		Booker:   booker.New(),
		Queue:    queue.New(),
		Runners:  runner,
	})
}

func TestStartSyncRunsToCompletion(t *testing.T) {
	profiles := newMemProfileStore(testProfile("hcontacts", "bt-peer-1", "contacts"))
	runner := fake.New()
	runner.Program(&fake.Script{
		AutoComplete: true,
		Completion:   pluginrunner.Completion{Status: model.StatusDone, Minor: model.ReasonNone},
	})
	s := newTestSynchronizer(profiles, runner)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	ok, err := s.StartSync(ctx, "hcontacts")
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		names, err := s.GetRunningSyncList(ctx)
		return err == nil && len(names) == 0
	}, 2*time.Second, 10*time.Millisecond, "session should reach a terminal state")
}

func TestStartSyncUnknownProfile(t *testing.T) {
	s := newTestSynchronizer(newMemProfileStore(), fake.New())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	ok, err := s.StartSync(ctx, "does-not-exist")
	require.Error(t, err)
	require.False(t, ok)
}

func TestStorageContentionEnqueuesSecondProfile(t *testing.T) {
	profiles := newMemProfileStore(
		testProfile("a", "peer-a", "shared"),
		testProfile("b", "peer-b", "shared"),
	)
	runner := fake.New()
	// Neither script auto-completes; both sessions, if started, stay RUNNING
	// until the test explicitly finishes them.
	runner.Program(fake.DefaultScript())
	runner.Program(fake.DefaultScript())
	s := newTestSynchronizer(profiles, runner)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	ok, err := s.StartSync(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.StartSync(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		names, err := s.GetRunningSyncList(ctx)
		return err == nil && len(names) == 1 && names[0] == "a"
	}, 2*time.Second, 10*time.Millisecond, "profile b should be queued behind a's storage reservation")
}

func TestAbortSyncStopsRunner(t *testing.T) {
	profiles := newMemProfileStore(testProfile("hcontacts", "bt-peer-1", "contacts"))
	runner := fake.New()
	runner.Program(fake.DefaultScript())
	s := newTestSynchronizer(profiles, runner)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	ok, err := s.StartSync(ctx, "hcontacts")
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		names, _ := s.GetRunningSyncList(ctx)
		return len(names) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.AbortSync(ctx, "hcontacts"))

	// handleAbort only signals Stop(); cleanup happens once the plugin
	// reports its own terminal event, matching a real runner's contract.
	// This is the first (and only) session, so fake.Runner's deterministic
	// handle numbering gives it "hcontacts#1".
	handle := pluginrunner.Handle("hcontacts#1")
	require.Eventually(t, func() bool {
		return runner.WasStopped(handle)
	}, time.Second, 5*time.Millisecond, "abort should signal Stop on the runner")

	runner.Finish(handle, pluginrunner.Completion{Status: model.StatusAborted, Minor: model.ReasonAborted})

	require.Eventually(t, func() bool {
		names, err := s.GetRunningSyncList(ctx)
		return err == nil && len(names) == 0
	}, 2*time.Second, 10*time.Millisecond, "aborted session should clear once the runner reports terminal")
}

func TestVisibleProfilesAndByType(t *testing.T) {
	profiles := newMemProfileStore(
		testProfile("a", "peer-a", "sa"),
		testProfile("b", "peer-b", "sb"),
	)
	s := newTestSynchronizer(profiles, fake.New())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	all, err := s.VisibleProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byType, err := s.ProfilesByType(ctx, string(model.DestinationDevice))
	require.NoError(t, err)
	require.Len(t, byType, 2)
}
