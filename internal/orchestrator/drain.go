// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"

	"github.com/ManuGH/syncd/internal/metrics"
	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/session"
)

// handleAbort implements spec.md §4.4's abort(profile) entry point: a
// running session is signalled to stop and its own terminal event drives
// cleanup; a queued one is dropped and synthesizes a CANCELLED result
// directly, since it never became a Session.
func (s *Synchronizer) handleAbort(ctx context.Context, c cmd) {
	if rs, active := s.sessions[c.profileName]; active {
		rs.pendingReason = model.ReasonAborted
		rs.sess.Abort()
		_ = s.cfg.Runners.Stop(ctx, rs.handle) // plugin's own terminal event drives cleanup regardless
		reply(c, cmdResult{ok: true})
		return
	}
	if e, ok := s.cfg.Queue.Get(c.profileName); ok {
		s.cfg.Queue.Remove(c.profileName)
		p, found := s.cfg.Profiles.Get(c.profileName)
		if !found {
			p = model.Profile{Name: e.ProfileName, ClientProfileName: e.ClientProfileName, StorageNames: e.StorageNames}
		}
		sess := session.New(p, e.Scheduled)
		s.terminalizeNewSession(ctx, sess, model.SessionCancelled, model.ReasonAborted, "aborted while queued")
		reply(c, cmdResult{ok: true})
		return
	}
	reply(c, cmdResult{ok: false})
}

// drain implements spec.md §4.4's drain loop, invoked whenever a storage is
// released (a session finishes) or the queue changes shape.
func (s *Synchronizer) drain(ctx context.Context) {
	for {
		if s.cfg.Queue.Len() == 0 {
			return
		}
		if s.cfg.Backup != nil && s.cfg.Backup.Active() {
			return
		}

		head, ok := s.cfg.Queue.Peek()
		if !ok {
			return
		}

		if head.Scheduled {
			if reason, blocked := s.powerGate(); blocked {
				s.cfg.Queue.Pop()
				p, found := s.cfg.Profiles.Get(head.ProfileName)
				if !found {
					p = model.Profile{Name: head.ProfileName, ClientProfileName: head.ClientProfileName, StorageNames: head.StorageNames}
				}
				sess := session.New(p, true)
				s.terminalizeNewSession(ctx, sess, model.SessionError, reason, "rejected at dequeue")
				continue
			}
		}

		if !s.cfg.Booker.Reserve(head.StorageNames, head.ProfileName) {
			return
		}
		if s.hasActiveClientProfile(head.ClientProfileName) {
			s.cfg.Booker.Release(head.StorageNames)
			return
		}

		s.cfg.Queue.Pop()
		metrics.QueueDepth.Set(float64(s.cfg.Queue.Len()))

		p, found := s.cfg.Profiles.Get(head.ProfileName)
		if !found {
			s.cfg.Booker.Release(head.StorageNames)
			sess := session.New(model.Profile{Name: head.ProfileName}, head.Scheduled)
			s.terminalizeNewSession(ctx, sess, model.SessionError, model.ReasonInternalError, "profile removed while queued")
			continue
		}
		s.beginSession(ctx, p, head.Scheduled)
	}
}

// powerGate reports whether a scheduled session should be rejected at
// dequeue time for battery/power-save policy, and which reason applies.
// Checked only here, per spec.md §9's first open-question resolution.
func (s *Synchronizer) powerGate() (model.ReasonCode, bool) {
	if s.cfg.LowBattery != nil && s.cfg.LowBattery() {
		return model.ReasonLowBatteryPower, true
	}
	if s.cfg.PowerSaving != nil && s.cfg.PowerSaving() {
		return model.ReasonPowerSavingMode, true
	}
	return "", false
}
