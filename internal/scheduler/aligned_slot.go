// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scheduler

import (
	"sync"
	"time"
)

// AlignedSlotWaker is the best-case wake back-end: it models an OS
// keepalive/alarm service that coalesces any two wake-ups falling in the
// same coarse slot. SlotSize controls the coalescing granularity (minutes
// or hours, per spec.md §4.3).
type AlignedSlotWaker struct {
	SlotSize time.Duration
	nowFn    func() time.Time

	mu      sync.Mutex
	timers  map[string]*time.Timer
	fireCh  chan string
}

// NewAlignedSlotWaker returns a waker coalescing wake-ups to slotSize
// boundaries (e.g. time.Minute).
func NewAlignedSlotWaker(slotSize time.Duration) *AlignedSlotWaker {
	return &AlignedSlotWaker{
		SlotSize: slotSize,
		nowFn:    time.Now,
		timers:   make(map[string]*time.Timer),
		fireCh:   make(chan string, 16),
	}
}

func (w *AlignedSlotWaker) Name() string { return "aligned-slot" }

// alignedDelay rounds delay up to the next slot boundary from now, so two
// wake-ups due in the same slot fire at the same boundary instant (each
// profile still has its own timer).
func (w *AlignedSlotWaker) alignedDelay(delay time.Duration) time.Duration {
	if w.SlotSize <= 0 {
		return delay
	}
	now := w.nowFn()
	target := now.Add(delay)
	slot := target.Truncate(w.SlotSize)
	if slot.Before(target) {
		slot = slot.Add(w.SlotSize)
	}
	d := slot.Sub(now)
	if d < 0 {
		d = 0
	}
	return d
}

func (w *AlignedSlotWaker) Arm(profileName string, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[profileName]; ok {
		t.Stop()
	}
	d := w.alignedDelay(delay)
	w.timers[profileName] = time.AfterFunc(d, func() {
		w.mu.Lock()
		delete(w.timers, profileName)
		w.mu.Unlock()
		select {
		case w.fireCh <- profileName:
		default:
		}
	})
}

func (w *AlignedSlotWaker) Disarm(profileName string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[profileName]; ok {
		t.Stop()
		delete(w.timers, profileName)
	}
}

func (w *AlignedSlotWaker) Fired() <-chan string {
	return w.fireCh
}

var _ WakeBackend = (*AlignedSlotWaker)(nil)
