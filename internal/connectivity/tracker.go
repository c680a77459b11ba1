// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package connectivity aggregates transport probe state (USB, Bluetooth,
// Internet) into the single online/type feed the orchestrator's
// connectivityChanged handler consumes. Transport probing itself is out of
// scope; this package only combines probe interfaces the daemon is handed
// at wiring time.
package connectivity

import (
	"sync"

	"github.com/ManuGH/syncd/internal/model"
)

// Probe reports the current reachability of one transport.
type Probe interface {
	// Name identifies the transport for logging (e.g. "usb", "bluetooth", "internet").
	Name() string
	// Online reports whether this transport currently provides connectivity,
	// and the InternetType it provides when it does.
	Online() (bool, model.InternetType)
}

// Change describes a transition in the combined connectivity state.
type Change struct {
	Online bool
	Type   model.InternetType
}

// Tracker combines probes into a single online/type signal and notifies
// subscribers on change.
type Tracker struct {
	mu      sync.Mutex
	probes  []Probe
	last    Change
	onChange func(Change)
}

// New returns a Tracker over the given probes, ordered by priority: the
// first probe to report online determines the connectivity type.
func New(probes []Probe, onChange func(Change)) *Tracker {
	return &Tracker{probes: probes, onChange: onChange}
}

// Poll re-evaluates every probe and fires onChange if the combined result
// differs from the last observed state.
func (t *Tracker) Poll() Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := Change{Type: model.InternetUnknown}
	for _, p := range t.probes {
		if online, kind := p.Online(); online {
			next = Change{Online: true, Type: kind}
			break
		}
	}

	if next != t.last {
		t.last = next
		if t.onChange != nil {
			t.onChange(next)
		}
	}
	return next
}

// Current returns the last observed combined state without re-polling.
func (t *Tracker) Current() Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
