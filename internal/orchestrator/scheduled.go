// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"
	"strings"

	"github.com/ManuGH/syncd/internal/model"
)

const rushSwitchSuffix = "#rush-switch"

// handleAlarmFired is invoked for every name the scheduler's wake back-end
// delivers: either a profile due for its scheduled sync, or a rush-switch
// re-evaluation timer (spec.md §4.3 step 3).
func (s *Synchronizer) handleAlarmFired(ctx context.Context, name string) {
	if strings.HasSuffix(name, rushSwitchSuffix) {
		profileName := strings.TrimSuffix(name, rushSwitchSuffix)
		if !s.cfg.Scheduler.AllowRushRearm() {
			return
		}
		if p, ok := s.cfg.Profiles.Get(profileName); ok {
			_, _ = s.cfg.Scheduler.NextFire(&p, s.now())
		}
		return
	}
	p, ok := s.cfg.Profiles.Get(name)
	if !ok {
		return
	}
	s.startScheduledSync(ctx, p)
}

// startScheduledSync implements spec.md §4.4's startScheduled(profile) entry
// point: connectivity and backup state are validated up front; battery/
// power-save gating happens later, only at dequeue (drain).
func (s *Synchronizer) startScheduledSync(ctx context.Context, p model.Profile) {
	if s.cfg.Backup != nil && s.cfg.Backup.Active() {
		s.publishStatus(ctx, p.Name, model.StatusNotPossible, "backup in progress", model.ReasonBackupInProgress)
		return
	}
	if !acceptScheduledSync(s.online, s.onlineType, &p, s.cfg.AllowScheduledSyncOverCellular) {
		s.waitingForOnline[p.Name] = p
		s.publishStatus(ctx, p.Name, model.StatusNotPossible, "no acceptable connectivity", model.ReasonOfflineMode)
		return
	}
	s.tryStartOrEnqueue(ctx, p, true)
}

// acceptScheduledSync implements spec.md §4.4's connectivity gate, delegating
// the per-type allow-list check to Profile.AllowsInternetType.
func acceptScheduledSync(online bool, connType model.InternetType, p *model.Profile, allowCellular bool) bool {
	if !online {
		return false
	}
	return p.AllowsInternetType(connType, allowCellular)
}

// handleConnectivityChanged implements spec.md §4.4's connectivityChanged
// entry point.
func (s *Synchronizer) handleConnectivityChanged(ctx context.Context, c cmd) {
	s.online = c.online
	s.onlineType = c.connType

	if c.online {
		for name, p := range s.waitingForOnline {
			if acceptScheduledSync(true, c.connType, &p, s.cfg.AllowScheduledSyncOverCellular) {
				delete(s.waitingForOnline, name)
				s.tryStartOrEnqueue(ctx, p, true)
			}
		}
		reply(c, cmdResult{ok: true})
		return
	}

	for _, rs := range s.sessions {
		if rs.sess.Profile.DestinationType != model.DestinationOnline {
			continue
		}
		rs.pendingReason = model.ReasonOfflineMode
		rs.sess.Abort()
		_ = s.cfg.Runners.Stop(ctx, rs.handle)
	}
	reply(c, cmdResult{ok: true})
}

// handleSOCFired implements spec.md §4.5's syncNow(profile) delivery: the
// coordinator has already atomically dequeued its pending entry, so this is
// purely "start like a scheduled sync would" — connectivity/backup gating
// still applies since the trigger is automatic, not a direct user action.
func (s *Synchronizer) handleSOCFired(ctx context.Context, profileName string) {
	if s.socSuppressed[profileName] {
		return
	}
	p, ok := s.cfg.Profiles.Get(profileName)
	if !ok {
		return
	}
	s.startScheduledSync(ctx, p)
}
