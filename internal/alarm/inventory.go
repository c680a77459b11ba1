// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package alarm implements AlarmInventory: a min-heap of wake instants, one
// per scheduled profile, mirrored onto a local embedded database. The table
// is emptied when the inventory is opened, so armed alarms do not carry
// over a daemon restart; the scheduler re-arms them from profile state.
package alarm

import (
	"container/heap"
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/syncd/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS alarms (
	alarmid  INTEGER PRIMARY KEY AUTOINCREMENT,
	synctime DATETIME NOT NULL,
	profile  TEXT NOT NULL
);
`

// Inventory maintains exactly one live OS timer, armed to the head of an
// in-memory min-heap mirrored onto sqlite. On fire, the head (and any alarm
// whose fire_at has since elapsed) is delivered in FireAt order, ties in
// insertion order, before re-arming the timer against the new head.
type Inventory struct {
	db *sql.DB

	mu   sync.Mutex
	heap alarmHeap

	timer   *time.Timer
	fireCh  chan model.Alarm
	stopCh  chan struct{}
	nowFn   func() time.Time
}

// alarmHeap orders by FireAt; ties broken by insertion order (ID), since
// AUTOINCREMENT ids are monotonic with insertion.
type alarmHeap []model.Alarm

func (h alarmHeap) Len() int { return len(h) }
func (h alarmHeap) Less(i, j int) bool {
	if h[i].FireAt.Equal(h[j].FireAt) {
		return h[i].ID < h[j].ID
	}
	return h[i].FireAt.Before(h[j].FireAt)
}
func (h alarmHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *alarmHeap) Push(x any)   { *h = append(*h, x.(model.Alarm)) }
func (h *alarmHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Open creates the alarms table in db if needed and truncates it: any
// surviving rows predate the current run and are re-derived from current
// profile state by the scheduler, per spec.md's "on init, truncate the
// table" contract.
func Open(ctx context.Context, db *sql.DB) (*Inventory, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("alarm: migrate: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM alarms"); err != nil {
		return nil, fmt.Errorf("alarm: truncate on init: %w", err)
	}
	return &Inventory{
		db:     db,
		fireCh: make(chan model.Alarm, 8),
		stopCh: make(chan struct{}),
		nowFn:  time.Now,
	}, nil
}

// Fired returns the channel on which delivered alarms are published.
func (inv *Inventory) Fired() <-chan model.Alarm {
	return inv.fireCh
}

// Add inserts a new alarm for profile at fireAt, maintaining the invariant
// that at most one armed alarm exists per profile (callers must Remove any
// existing alarm for the profile first; Add itself does not de-duplicate,
// since the scheduler owns that invariant per spec.md §4.3/§8 property 3).
func (inv *Inventory) Add(ctx context.Context, profile string, fireAt time.Time) (model.Alarm, error) {
	res, err := inv.db.ExecContext(ctx, "INSERT INTO alarms (synctime, profile) VALUES (?, ?)", fireAt.UTC(), profile)
	if err != nil {
		return model.Alarm{}, fmt.Errorf("alarm: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Alarm{}, fmt.Errorf("alarm: last insert id: %w", err)
	}
	a := model.Alarm{ID: uint64(id), FireAt: fireAt, Profile: profile}

	inv.mu.Lock()
	heap.Push(&inv.heap, a)
	inv.rearmLocked()
	inv.mu.Unlock()
	return a, nil
}

// Remove drops the alarm, used when a profile is removed or disabled.
func (inv *Inventory) Remove(ctx context.Context, id uint64) error {
	if _, err := inv.db.ExecContext(ctx, "DELETE FROM alarms WHERE alarmid = ?", id); err != nil {
		return fmt.Errorf("alarm: delete: %w", err)
	}
	inv.mu.Lock()
	for i, a := range inv.heap {
		if a.ID == id {
			heap.Remove(&inv.heap, i)
			break
		}
	}
	inv.rearmLocked()
	inv.mu.Unlock()
	return nil
}

// RemoveProfile drops every alarm for profile, used when a profile is
// removed or disabled and spec.md's "destroyed on fire or on profile
// removal/disable" lifecycle rule applies.
func (inv *Inventory) RemoveProfile(ctx context.Context, profile string) error {
	if _, err := inv.db.ExecContext(ctx, "DELETE FROM alarms WHERE profile = ?", profile); err != nil {
		return fmt.Errorf("alarm: delete by profile: %w", err)
	}
	inv.mu.Lock()
	kept := inv.heap[:0]
	for _, a := range inv.heap {
		if a.Profile != profile {
			kept = append(kept, a)
		}
	}
	inv.heap = kept
	heap.Init(&inv.heap)
	inv.rearmLocked()
	inv.mu.Unlock()
	return nil
}

// rearmLocked sets the single OS timer to the current heap head. Callers
// must hold inv.mu.
func (inv *Inventory) rearmLocked() {
	if inv.timer != nil {
		inv.timer.Stop()
		inv.timer = nil
	}
	if len(inv.heap) == 0 {
		return
	}
	head := inv.heap[0]
	delay := head.FireAt.Sub(inv.nowFn())
	if delay < 0 {
		delay = 0
	}
	inv.timer = time.AfterFunc(delay, inv.onTimerFire)
}

// onTimerFire delivers every alarm whose FireAt has elapsed, in heap order
// (FireAt, then insertion order for equal instants), then re-arms against
// the new head. This covers the race where the head has already fallen
// behind now by the time the timer fires: all overdue alarms go out in one
// pass before the timer is re-armed.
func (inv *Inventory) onTimerFire() {
	inv.mu.Lock()
	now := inv.nowFn()
	var due []model.Alarm
	for len(inv.heap) > 0 && !inv.heap[0].FireAt.After(now) {
		due = append(due, heap.Pop(&inv.heap).(model.Alarm))
	}
	inv.rearmLocked()
	inv.mu.Unlock()

	for _, a := range due {
		_ = inv.dbDelete(a.ID)
		select {
		case inv.fireCh <- a:
		case <-inv.stopCh:
			return
		}
	}
}

func (inv *Inventory) dbDelete(id uint64) error {
	_, err := inv.db.Exec("DELETE FROM alarms WHERE alarmid = ?", id)
	return err
}

// Close stops the armed timer and the fire channel's delivery loop.
func (inv *Inventory) Close() {
	inv.mu.Lock()
	if inv.timer != nil {
		inv.timer.Stop()
	}
	inv.mu.Unlock()
	close(inv.stopCh)
}

// Len reports the number of currently armed alarms.
func (inv *Inventory) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.heap)
}
