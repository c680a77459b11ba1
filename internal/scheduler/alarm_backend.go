// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/syncd/internal/alarm"
	"github.com/ManuGH/syncd/internal/metrics"
)

// AlarmBackend adapts alarm.Inventory (a persisted min-heap, spec.md §4.3's
// fallback for platforms without aligned-slot coalescing) to the
// WakeBackend interface, enforcing "at most one armed alarm per scheduled
// profile" (spec.md §3) since Inventory.Add itself does not de-duplicate.
type AlarmBackend struct {
	inv   *alarm.Inventory
	nowFn func() time.Time

	mu      sync.Mutex
	byName  map[string]uint64 // profile name -> armed alarm id

	fireCh chan string
	stopCh chan struct{}
}

// NewAlarmBackend wraps inv and starts the translation goroutine that turns
// delivered model.Alarm values into profile-name fire events.
func NewAlarmBackend(ctx context.Context, inv *alarm.Inventory) *AlarmBackend {
	b := &AlarmBackend{
		inv:    inv,
		nowFn:  time.Now,
		byName: make(map[string]uint64),
		fireCh: make(chan string, 16),
		stopCh: make(chan struct{}),
	}
	go b.pump(ctx)
	return b
}

func (b *AlarmBackend) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		case a, ok := <-b.inv.Fired():
			if !ok {
				return
			}
			b.mu.Lock()
			if b.byName[a.Profile] == a.ID {
				delete(b.byName, a.Profile)
			}
			b.mu.Unlock()
			metrics.AlarmsFiredTotal.Inc()
			select {
			case b.fireCh <- a.Profile:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (b *AlarmBackend) Name() string { return "alarm-inventory" }

func (b *AlarmBackend) Arm(profileName string, delay time.Duration) {
	ctx := context.Background()
	b.Disarm(profileName)

	a, err := b.inv.Add(ctx, profileName, b.nowFn().Add(delay))
	if err != nil {
		return
	}
	b.mu.Lock()
	b.byName[profileName] = a.ID
	b.mu.Unlock()
	metrics.AlarmsArmedTotal.WithLabelValues(b.Name()).Inc()
}

func (b *AlarmBackend) Disarm(profileName string) {
	b.mu.Lock()
	id, ok := b.byName[profileName]
	delete(b.byName, profileName)
	b.mu.Unlock()
	if ok {
		_ = b.inv.Remove(context.Background(), id)
	}
}

func (b *AlarmBackend) Fired() <-chan string {
	return b.fireCh
}

// Close stops the translation goroutine.
func (b *AlarmBackend) Close() {
	close(b.stopCh)
}

var _ WakeBackend = (*AlarmBackend)(nil)
