// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package extsync implements ExternalSyncRegistry: the profileName -> bool
// map of "is this profile currently considered externally synced" (spec.md
// §4.7), cached in an embedded badger KV so the daemon does not re-emit
// syncedExternallyStatus to every listener on every restart.
package extsync

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/syncd/internal/model"
)

const keyPrefix = "extsync:"

// Registry maintains profileName -> isExternallySynced.
type Registry struct {
	db *badger.DB
}

// Open opens (or creates) the badger database at path.
func Open(path string) (*Registry, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Registry{db: db}, nil
}

// Close releases the underlying badger database.
func (r *Registry) Close() error {
	return r.db.Close()
}

type entry struct {
	Value   bool      `json:"value"`
	AtUnix  int64     `json:"atUnix"`
}

// Get returns the last computed value for profileName, if any.
func (r *Registry) Get(profileName string) (bool, bool) {
	var out entry
	found := false
	_ = r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + profileName))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	return out.Value, found
}

// set persists value for profileName.
func (r *Registry) set(profileName string, value bool) error {
	buf, err := json.Marshal(entry{Value: value, AtUnix: time.Now().Unix()})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+profileName), buf)
	})
}

// remove drops the entry for profileName.
func (r *Registry) remove(profileName string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + profileName))
	})
}

// Transition is the outcome of recomputing a profile's externally-synced
// value: whether it changed, and the new value (meaningless if Removed).
type Transition struct {
	Changed bool
	Value   bool
	Removed bool
}

// Recompute applies spec.md §4.7's decision rule and persists the result.
// It always returns a Transition for explicit-query callers, even when the
// value has not changed, per "emit ... on every transition and on explicit
// query even when unchanged" — the caller decides whether to actually emit
// based on the explicit-query flag.
func (r *Registry) Recompute(p *model.Profile, backupActive bool, now time.Time) (Transition, error) {
	prev, hadPrev := r.Get(p.Name)

	switch {
	case backupActive:
		return r.finish(p.Name, false, prev, hadPrev)
	case p.SyncExternallyEnabled:
		return r.finish(p.Name, true, prev, hadPrev)
	case p.SyncExternallyDuringRush:
		return r.finish(p.Name, p.InExternalRushPeriod(now), prev, hadPrev)
	default:
		if hadPrev {
			if err := r.remove(p.Name); err != nil {
				return Transition{}, err
			}
		}
		return Transition{Changed: hadPrev && prev, Value: false, Removed: true}, nil
	}
}

func (r *Registry) finish(name string, value bool, prev bool, hadPrev bool) (Transition, error) {
	if err := r.set(name, value); err != nil {
		return Transition{}, err
	}
	return Transition{Changed: !hadPrev || prev != value, Value: value}, nil
}
