// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package deleteditems

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ManuGH/syncd/internal/persistence/sqlite"
)

// Manager lazily opens one Store per profile, each its own embedded
// database under dir, matching store.go's "ledger for one profile's data
// source" scoping (spec.md §6's snapshot/deleteditems tables are keyed by
// itemid alone, with no profile column, so one profile's items must not
// share a database with another's).
type Manager struct {
	dir string

	mu     sync.Mutex
	dbs    map[string]*sql.DB
	stores map[string]*Store
}

// OpenManager returns a Manager rooted at dir. dir must already exist;
// neither OpenManager nor For creates it.
func OpenManager(dir string) *Manager {
	return &Manager{dir: dir, dbs: make(map[string]*sql.DB), stores: make(map[string]*Store)}
}

// For returns the Store for profileName, opening its database on first
// access.
func (m *Manager) For(ctx context.Context, profileName string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[profileName]; ok {
		return s, nil
	}

	path := filepath.Join(m.dir, profileName+".sqlite")
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("deleteditems: open database for %s: %w", profileName, err)
	}
	s, err := Open(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m.dbs[profileName] = db
	m.stores[profileName] = s
	return s, nil
}

// Close closes every database opened through the Manager.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, db := range m.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
