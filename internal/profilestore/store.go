// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package profilestore is a minimal on-disk implementation of
// orchestrator.ProfileStore: one profilecodec-encoded XML file per profile
// under a directory, cached in memory. spec.md §1 places "the profile store
// format (XML files on disk) and its I/O" out of scope for the core; this
// package exists only so cmd/syncd has a concrete external collaborator to
// wire the orchestrator against, grounded on teacher's internal/channels.
// Manager (load-all-at-startup, one small file per record, renameio atomic
// writes borrowed from internal/jobs/write_unix.go rather than
// channels.Manager's plain os.WriteFile, since this store is written from
// concurrent request handlers instead of a single background loop).
package profilestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/syncd/internal/log"
	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/profilecodec"
)

// Store is a directory-backed, in-memory-cached profile store.
type Store struct {
	dir string

	mu       sync.RWMutex
	profiles map[string]model.Profile
}

// Open loads every "*.xml" file under dir into memory. The directory is
// created if it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("profilestore: mkdir %s: %w", dir, err)
	}
	s := &Store{dir: dir, profiles: make(map[string]model.Profile)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("profilestore: read dir %s: %w", dir, err)
	}
	logger := log.WithComponent("profilestore")
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable profile file")
			continue
		}
		p, err := profilecodec.Unmarshal(data)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping malformed profile file")
			continue
		}
		s.profiles[p.Name] = p
	}
	logger.Info().Int("count", len(s.profiles)).Str("dir", dir).Msg("loaded profiles")
	return s, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".xml")
}

// Get returns the cached profile snapshot for name.
func (s *Store) Get(name string) (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	if !ok {
		return model.Profile{}, false
	}
	return p.Snapshot(), true
}

// All returns a snapshot of every known profile.
func (s *Store) All() []model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Snapshot())
	}
	return out
}

// Put writes p to disk and updates the in-memory cache. Atomic
// write-then-rename (renameio) so a reader never observes a partial file.
func (s *Store) Put(p model.Profile) error {
	data, err := profilecodec.Marshal(&p)
	if err != nil {
		return fmt.Errorf("profilestore: marshal %q: %w", p.Name, err)
	}
	if err := renameio.WriteFile(s.path(p.Name), data, 0o644); err != nil {
		return fmt.Errorf("profilestore: write %q: %w", p.Name, err)
	}
	s.mu.Lock()
	s.profiles[p.Name] = p
	s.mu.Unlock()
	return nil
}

// Remove deletes the profile's file and cache entry. Removing an
// already-absent profile is not an error (spec.md's REMOVED event may race
// with an earlier Remove for the same name).
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("profilestore: remove %q: %w", name, err)
	}
	s.mu.Lock()
	delete(s.profiles, name)
	s.mu.Unlock()
	return nil
}
