// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package queue implements the FIFO session queue the orchestrator drains
// against storage and client-profile availability.
package queue

import "github.com/ManuGH/syncd/internal/model"

// Entry is one profile-name waiting to start, carrying just enough to drive
// the drain loop's admission checks (storages, client profile, schedule).
type Entry struct {
	ProfileName       string
	ClientProfileName string
	StorageNames      []string
	Scheduled         bool
	LowBattery        bool
}

// SessionQueue is a FIFO queue indexed by profile name so membership checks
// (used by start()'s "enqueue if a copy already exists" rule) are O(1).
type SessionQueue struct {
	order []string
	byName map[string]Entry
}

// New returns an empty SessionQueue.
func New() *SessionQueue {
	return &SessionQueue{byName: make(map[string]Entry)}
}

// Push appends e to the tail of the queue. Pushing a profile name already
// present is a no-op, mirroring "a session in sessionQueue has not yet
// reserved its storages" — a profile can only wait once.
func (q *SessionQueue) Push(e Entry) bool {
	if _, exists := q.byName[e.ProfileName]; exists {
		return false
	}
	q.order = append(q.order, e.ProfileName)
	q.byName[e.ProfileName] = e
	return true
}

// Contains reports whether profileName currently has a queued entry.
func (q *SessionQueue) Contains(profileName string) bool {
	_, ok := q.byName[profileName]
	return ok
}

// Peek returns the head entry without removing it.
func (q *SessionQueue) Peek() (Entry, bool) {
	if len(q.order) == 0 {
		return Entry{}, false
	}
	return q.byName[q.order[0]], true
}

// Pop removes and returns the head entry.
func (q *SessionQueue) Pop() (Entry, bool) {
	e, ok := q.Peek()
	if !ok {
		return Entry{}, false
	}
	q.order = q.order[1:]
	delete(q.byName, e.ProfileName)
	return e, true
}

// Get returns the queued entry for profileName without removing it.
func (q *SessionQueue) Get(profileName string) (Entry, bool) {
	e, ok := q.byName[profileName]
	return e, ok
}

// Remove drops profileName from the queue wherever it sits, used by abort()
// and by profileChanged(REMOVED) to drop queued triggers.
func (q *SessionQueue) Remove(profileName string) bool {
	if _, ok := q.byName[profileName]; !ok {
		return false
	}
	delete(q.byName, profileName)
	for i, name := range q.order {
		if name == profileName {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Len reports the number of queued entries.
func (q *SessionQueue) Len() int {
	return len(q.order)
}

// HasClientProfile reports whether any queued entry shares clientProfileName,
// used by the drain loop's client-exclusivity check against active sessions
// is done by the caller; this only inspects the queue itself.
func (q *SessionQueue) HasClientProfile(clientProfileName string) bool {
	for _, name := range q.order {
		if q.byName[name].ClientProfileName == clientProfileName {
			return true
		}
	}
	return false
}

// EntryFromProfile builds a queue Entry from a profile snapshot.
func EntryFromProfile(p *model.Profile, scheduled bool) Entry {
	return Entry{
		ProfileName:       p.Name,
		ClientProfileName: p.ClientProfileName,
		StorageNames:      append([]string(nil), p.StorageNames...),
		Scheduled:         scheduled,
	}
}
