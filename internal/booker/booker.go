// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package booker implements the StorageBooker concurrency arbiter: a small
// all-or-nothing reservation table for named storages. It carries no mutex
// of its own; per the single-threaded cooperative event loop in which the
// orchestrator runs, its methods are only ever called from that one task.
package booker

// StorageBooker tracks which owner currently holds each named storage.
type StorageBooker struct {
	holders map[string]string // storage name -> owner
}

// New returns an empty StorageBooker.
func New() *StorageBooker {
	return &StorageBooker{holders: make(map[string]string)}
}

// Reserve attempts to acquire every listed storage for owner, all-or-nothing.
// It succeeds only if none of the listed storages is currently held by any
// owner, including owner itself. On success, every listed storage is
// recorded held by owner; on failure, no state changes.
func (b *StorageBooker) Reserve(storages []string, owner string) bool {
	for _, s := range storages {
		if _, held := b.holders[s]; held {
			return false
		}
	}
	for _, s := range storages {
		b.holders[s] = owner
	}
	return true
}

// Release unconditionally drops reservations for the listed storages,
// regardless of which owner (if any) currently holds them.
func (b *StorageBooker) Release(storages []string) {
	for _, s := range storages {
		delete(b.holders, s)
	}
}

// ReserveOne is the single-storage variant used by plugins for intra-session
// storage handoff.
func (b *StorageBooker) ReserveOne(name, owner string) bool {
	if _, held := b.holders[name]; held {
		return false
	}
	b.holders[name] = owner
	return true
}

// ReleaseOne unconditionally drops the reservation for a single storage.
func (b *StorageBooker) ReleaseOne(name string) {
	delete(b.holders, name)
}

// Owner returns the current owner of a storage, if any.
func (b *StorageBooker) Owner(name string) (string, bool) {
	owner, ok := b.holders[name]
	return owner, ok
}

// Held reports whether any of the listed storages is currently held.
func (b *StorageBooker) Held(storages []string) bool {
	for _, s := range storages {
		if _, held := b.holders[s]; held {
			return true
		}
	}
	return false
}

// OwnedBy returns every storage currently held by owner.
func (b *StorageBooker) OwnedBy(owner string) []string {
	var out []string
	for s, o := range b.holders {
		if o == owner {
			out = append(out, s)
		}
	}
	return out
}
