// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ManuGH/syncd/internal/log"
)

// StoreWatcher watches the on-disk directories backing a set of named
// storages (e.g. "hcontacts") and reports which storage changed, the local
// data-store change notification feed spec.md §1/§2 names as the input to
// the Sync-on-Change Coordinator. The storage semantics and format of each
// directory are out of scope (spec.md's Non-goals); this package only
// turns filesystem writes into storage-name events, the same directory-
// watch-to-event shape teacher's internal/fsutil/proxy watcher uses
// fsnotify for.
type StoreWatcher struct {
	w        *fsnotify.Watcher
	mu       sync.Mutex
	byDir    map[string]string // watched directory -> storage name
	onChange func(storageName string)
}

// NewStoreWatcher opens an fsnotify watcher with no directories registered
// yet; call Watch for each storage before calling Run. onChange may be nil
// and set later via OnChange, letting callers wire a callback that closes
// over a component constructed after the watcher itself.
func NewStoreWatcher(onChange func(storageName string)) (*StoreWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &StoreWatcher{w: w, byDir: make(map[string]string), onChange: onChange}, nil
}

// OnChange sets (or replaces) the change callback.
func (s *StoreWatcher) OnChange(onChange func(storageName string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = onChange
}

// Watch registers dir as the backing directory for storageName. Events
// under dir (write, create, remove, rename) are reported as a change to
// storageName.
func (s *StoreWatcher) Watch(storageName, dir string) error {
	if err := s.w.Add(dir); err != nil {
		return err
	}
	s.mu.Lock()
	s.byDir[dir] = storageName
	s.mu.Unlock()
	return nil
}

// Run pumps fsnotify events until ctx is cancelled, translating each event
// into a call to onChange with the storage name the changed path maps to.
func (s *StoreWatcher) Run(ctx context.Context) {
	logger := log.WithComponent("storewatcher")
	for {
		select {
		case <-ctx.Done():
			_ = s.w.Close()
			return
		case ev, ok := <-s.w.Events:
			if !ok {
				return
			}
			if storageName, ok := s.lookup(ev.Name); ok {
				if cb := s.changeCallback(); cb != nil {
					cb(storageName)
				}
			}
		case err, ok := <-s.w.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("storage watcher error")
		}
	}
}

func (s *StoreWatcher) changeCallback() func(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onChange
}

// lookup finds which watched directory is an ancestor of path and returns
// its storage name.
func (s *StoreWatcher) lookup(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for dir, name := range s.byDir {
		if len(path) >= len(dir) && path[:len(dir)] == dir {
			return name, true
		}
	}
	return "", false
}
