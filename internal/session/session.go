// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session wraps a lifecycle-managed SessionRecord with the runtime
// handles the orchestrator needs while a sync is active: the profile
// snapshot, reserved storages, the plugin runner handle, and a progress
// stream. Exactly one Session exists per active sync.
package session

import (
	"time"

	"github.com/ManuGH/syncd/internal/lifecycle"
	"github.com/ManuGH/syncd/internal/model"
)

// RunHandle identifies the worker task/goroutine running a plugin for this
// session, and the cancel function the orchestrator calls on abort().
type RunHandle struct {
	Cancel func()
}

// Session is one active (or queued) sync.
type Session struct {
	Profile   model.Profile
	Record    *model.SessionRecord
	RunHandle RunHandle

	// ProgressCh receives transferProgress-shaped updates from the plugin
	// runner while RUNNING.
	ProgressCh chan model.Event
}

// New constructs a Session in the CREATED state for the given profile
// snapshot. scheduled marks whether this run was triggered by the scheduler
// rather than a manual start() call.
func New(p model.Profile, scheduled bool) *Session {
	return &Session{
		Profile:    p,
		Record:     lifecycle.NewSessionRecord(p.Name, p.ClientProfileName, scheduled, time.Now()),
		ProgressCh: make(chan model.Event, 16),
	}
}

// Dispatch applies a lifecycle event to this session's record.
func (s *Session) Dispatch(ev lifecycle.Event, now time.Time) (lifecycle.Transition, error) {
	return lifecycle.Dispatch(s.Record, ev, now)
}

// SetFailureResult stamps a synthetic result before terminal emission so
// every session produces exactly one persisted result row, whether it ran
// or not. It mirrors spec.md §4.2's setFailureResult(kind, code) and is the
// funnel every error path (policy rejection, plugin failure, abort) goes
// through before the terminal lifecycle event is dispatched.
func (s *Session) SetFailureResult(target model.SessionState, reason model.ReasonCode, message string) {
	s.Record.Result = &model.SyncResult{
		Major:   statusForTerminal(target),
		Minor:   reason,
		Message: message,
		At:      time.Now(),
	}
}

// SetSuccessResult stamps the persisted result for a normal DONE exit,
// carrying per-target item counts reported by the plugin runner.
func (s *Session) SetSuccessResult(targets []model.TargetCount) {
	s.Record.Result = &model.SyncResult{
		Major:   model.StatusDone,
		Minor:   model.ReasonNone,
		Targets: targets,
		At:      time.Now(),
	}
}

func statusForTerminal(state model.SessionState) model.Status {
	switch state {
	case model.SessionDone:
		return model.StatusDone
	case model.SessionCancelled:
		return model.StatusCancelled
	case model.SessionAborted:
		return model.StatusAborted
	default:
		return model.StatusError
	}
}

// IsActive reports whether the session currently occupies resources
// (storages and/or a client-profile slot), per spec.md §3's invariant that
// activeSessions always have reserved storages.
func (s *Session) IsActive() bool {
	return s.Record.State.IsResourceOccupying()
}

// Abort requests the plugin runner stop, if one is attached. Completion is
// driven asynchronously by the plugin's own terminal event, per spec.md §5
// ("no timeout; if the plugin never completes the session remains
// RUNNING").
func (s *Session) Abort() {
	if s.RunHandle.Cancel != nil {
		s.RunHandle.Cancel()
	}
}
