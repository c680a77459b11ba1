// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"
	"time"
)

// changeTrigger is the queued "trigger record" spec.md §4.4 describes for
// profileChanged: at most one pending kind/xml per profile, coalesced behind
// a single debounce timer so a burst of notifications for the same profile
// collapses into one processing pass.
type changeTrigger struct {
	kind  string
	xml   string
	timer *time.Timer
}

// handleProfileChanged implements spec.md §4.4's profileChanged(name, kind,
// xml) entry point: queue an internal trigger record and arm (or re-arm) the
// coalescing timer; the actual effect happens later in processChangeTrigger,
// on the event-loop goroutine, when the timer fires onto s.changeFireCh.
func (s *Synchronizer) handleProfileChanged(ctx context.Context, c cmd) {
	t, existing := s.changeTriggers[c.profileName]
	if existing {
		t.timer.Stop()
		t.kind = c.changeKind
		t.xml = c.changeXML
	} else {
		t = &changeTrigger{kind: c.changeKind, xml: c.changeXML}
		s.changeTriggers[c.profileName] = t
	}
	profileName := c.profileName
	t.timer = time.AfterFunc(s.cfg.ProfileChangeCoalesce, func() {
		select {
		case s.changeFireCh <- profileName:
		default:
		}
	})
	reply(c, cmdResult{ok: true})
}

// processChangeTrigger runs on the event-loop goroutine when a profile's
// coalescing timer fires; it consumes (and removes) the queued record and
// applies the one effect spec.md §4.4 assigns to each change kind.
func (s *Synchronizer) processChangeTrigger(ctx context.Context, profileName string) {
	t, ok := s.changeTriggers[profileName]
	if !ok {
		return
	}
	delete(s.changeTriggers, profileName)

	switch t.kind {
	case "REMOVED":
		delete(s.waitingForOnline, profileName)
		s.socCancel(profileName)
		if s.cfg.Scheduler != nil {
			s.cfg.Scheduler.Unarm(profileName)
		}
		return
	case "ADDED":
		p, ok := s.cfg.Profiles.Get(profileName)
		if !ok {
			return
		}
		s.tryStartOrEnqueue(ctx, p, false)
	case "MODIFIED":
		p, ok := s.cfg.Profiles.Get(profileName)
		if !ok {
			return
		}
		s.startScheduledSync(ctx, p)
	}
}
