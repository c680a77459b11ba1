// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"

	"github.com/ManuGH/syncd/internal/backup"
	"github.com/ManuGH/syncd/internal/metrics"
	"github.com/ManuGH/syncd/internal/model"
)

// handleBackupStart implements spec.md §4.4's "backup/restore start" entry
// point: abort every active session, suspend the scheduler, record every
// profile as not-sync-externally, then hold req.Reply open until the drain
// (triggered by each session's own terminal event) reaches zero.
func (s *Synchronizer) handleBackupStart(ctx context.Context, req backup.Request) {
	s.cfg.Backup.SetActive(true)
	metrics.BackupDrainsTotal.WithLabelValues(string(req.Kind)).Inc()

	kindEvent := model.EventBackupInProgress
	if req.Kind == backup.KindRestore {
		kindEvent = model.EventRestoreInProgress
	}
	s.publish(ctx, model.Event{Kind: kindEvent})

	for _, rs := range s.sessions {
		rs.pendingReason = model.ReasonBackupInProgress
		rs.sess.Abort()
		_ = s.cfg.Runners.Stop(ctx, rs.handle)
	}
	if s.cfg.Scheduler != nil {
		for _, p := range s.cfg.Profiles.All() {
			s.cfg.Scheduler.Unarm(p.Name)
		}
	}
	s.recomputeExternalSync(ctx, true)

	s.pendingDrainReply = req.Reply
	s.maybeResolveDrain()
}

// handleBackupDone implements spec.md §4.4's "backup/restore finish" entry
// point: restart the scheduler for every profile and reply immediately,
// since resuming never blocks on in-flight sessions (there are none — the
// drain completed before backupStart's reply was sent).
func (s *Synchronizer) handleBackupDone(ctx context.Context, req backup.Request) {
	s.cfg.Backup.SetActive(false)

	doneEvent := model.EventBackupDone
	if req.Kind == backup.KindRestore {
		doneEvent = model.EventRestoreDone
	}
	s.publish(ctx, model.Event{Kind: doneEvent})

	if s.cfg.Scheduler != nil {
		for _, p := range s.cfg.Profiles.All() {
			_, _ = s.cfg.Scheduler.NextFire(&p, s.now())
		}
	}
	s.recomputeExternalSync(ctx, false)
	s.drain(ctx)

	backup.Resolve(req)
}

// maybeResolveDrain closes the held backupStart reply once every session
// has reached a terminal state, per spec.md §4.6's "caller blocks... until
// the orchestrator has drained to zero active sessions".
func (s *Synchronizer) maybeResolveDrain() {
	if s.pendingDrainReply == nil || len(s.sessions) != 0 {
		return
	}
	close(s.pendingDrainReply)
	s.pendingDrainReply = nil
}

func (s *Synchronizer) recomputeExternalSync(ctx context.Context, backupActive bool) {
	if s.cfg.ExternalSync == nil {
		return
	}
	for _, p := range s.cfg.Profiles.All() {
		tr, err := s.cfg.ExternalSync.Recompute(&p, backupActive, s.now())
		if err != nil || !tr.Changed {
			continue
		}
		metrics.ExternalSyncTransitionsTotal.WithLabelValues(boolLabel(tr.Value)).Inc()
		s.publish(ctx, model.Event{
			Kind:             model.EventSyncedExternallyStatus,
			ProfileName:      p.Name,
			AccountID:        p.Extra["account-id"],
			ClientProfile:    p.ClientProfileName,
			ExternallySynced: tr.Value,
		})
	}
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
