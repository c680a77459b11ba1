// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/syncd/internal/lifecycle"
	"github.com/ManuGH/syncd/internal/log"
	"github.com/ManuGH/syncd/internal/metrics"
	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/pluginrunner"
	"github.com/ManuGH/syncd/internal/queue"
	"github.com/ManuGH/syncd/internal/session"
	"github.com/ManuGH/syncd/internal/telemetry"
)

var tracer = telemetry.Tracer("syncd/orchestrator")

// Session is an alias so this package's API reads naturally while the
// actual type lives alongside the lifecycle machinery it wraps.
type Session = session.Session

// handleStart implements spec.md §4.4's start(profile) manual entry point.
func (s *Synchronizer) handleStart(ctx context.Context, c cmd) {
	p, ok := s.cfg.Profiles.Get(c.profileName)
	if !ok {
		reply(c, cmdResult{ok: false, err: errf("unknown profile %q", c.profileName)})
		return
	}
	s.socCancel(p.Name) // manual start wins over a pending SOC debounce
	s.tryStartOrEnqueue(ctx, p, false)
	reply(c, cmdResult{ok: true})
}

// tryStartOrEnqueue is the shared core of start() and startScheduledSync():
// enqueue if the same profile is already active/queued or its client type is
// busy, otherwise attempt an immediate reserve+start.
func (s *Synchronizer) tryStartOrEnqueue(ctx context.Context, p model.Profile, scheduled bool) {
	if _, active := s.sessions[p.Name]; active {
		return
	}
	if s.cfg.Queue.Contains(p.Name) {
		return
	}
	if s.hasActiveClientProfile(p.ClientProfileName) {
		s.enqueue(ctx, p, scheduled)
		return
	}
	if !s.cfg.Booker.Reserve(p.StorageNames, p.Name) {
		for _, name := range p.StorageNames {
			metrics.BookerContentionTotal.WithLabelValues(name).Inc()
		}
		s.enqueue(ctx, p, scheduled)
		return
	}
	s.beginSession(ctx, p, scheduled)
}

func (s *Synchronizer) enqueue(ctx context.Context, p model.Profile, scheduled bool) {
	if s.cfg.Queue.Push(queue.EntryFromProfile(&p, scheduled)) {
		metrics.QueueDepth.Set(float64(s.cfg.Queue.Len()))
		s.publishStatus(ctx, p.Name, model.StatusQueued, "", model.ReasonNone)
	}
}

// beginSession reserves the profile's client-profile slot (storages are
// already reserved by the caller), dispatches the session through CREATED ->
// RESERVED -> STARTING -> RUNNING, and spawns the watcher goroutine that
// forwards the plugin runner's progress/terminal events onto the event loop.
func (s *Synchronizer) beginSession(ctx context.Context, p model.Profile, scheduled bool) {
	sess := session.New(p.Snapshot(), scheduled)
	if _, err := sess.Dispatch(lifecycle.Event{Kind: lifecycle.EvReserved}, s.now()); err != nil {
		s.terminalizeNewSession(ctx, sess, model.SessionError, model.ReasonInternalError, err.Error())
		return
	}
	sess.Record.ReservedStorages = p.StorageNames
	metrics.RecordTransition(string(model.SessionCreated), string(model.SessionReserved))

	ctx, span := tracer.Start(ctx, "sync.session",
		trace.WithAttributes(telemetry.SessionAttributes(p.Name, p.ClientProfileName, string(p.DestinationType), syncTypeLabel(scheduled))...))

	rs := &runningSession{sess: sess, span: span}
	s.sessions[p.Name] = rs
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	if p.SyncExternallyEnabled || p.SyncExternallyDuringRush {
		s.socSuppressed[p.Name] = true
	} else {
		// Suppress just the next SOC notification for this profile's own
		// storages, per spec.md §4.4's "else only disable it for the next
		// notification" — modeled by cancelling any currently pending timer;
		// AddProfile calls that arrive while the session is active re-arm.
		s.socCancel(p.Name)
	}

	handle, err := s.cfg.Runners.Init(ctx, p)
	if err != nil {
		s.terminalizeSession(ctx, p.Name, model.SessionError, model.ReasonInternalError, err.Error())
		return
	}
	rs.handle = handle
	if _, err := sess.Dispatch(lifecycle.Event{Kind: lifecycle.EvPluginInitOK}, s.now()); err != nil {
		s.terminalizeSession(ctx, p.Name, model.SessionError, model.ReasonInternalError, err.Error())
		return
	}
	metrics.RecordTransition(string(model.SessionReserved), string(model.SessionStarting))

	if err := s.cfg.Runners.Start(ctx, handle); err != nil {
		s.terminalizeSession(ctx, p.Name, model.SessionError, model.ReasonInternalError, err.Error())
		return
	}
	if _, err := sess.Dispatch(lifecycle.Event{Kind: lifecycle.EvPluginStartOK}, s.now()); err != nil {
		s.terminalizeSession(ctx, p.Name, model.SessionError, model.ReasonInternalError, err.Error())
		return
	}
	metrics.RecordTransition(string(model.SessionStarting), string(model.SessionRunning))
	s.publishStatus(ctx, p.Name, model.StatusStarted, "", model.ReasonNone)

	go s.watchSession(ctx, p.Name, handle)
}

// watchSession runs on its own goroutine (spec.md §5: "plugin runners
// execute in separate worker tasks") and only ever writes to
// Synchronizer.sessionEvents, never touching session/queue/booker state
// directly.
func (s *Synchronizer) watchSession(ctx context.Context, profileName string, handle pluginrunner.Handle) {
	progress := s.cfg.Runners.Progress(handle)
	done := s.cfg.Runners.Done(handle)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-progress:
			if !ok {
				progress = nil
				continue
			}
			select {
			case s.sessionEvents <- sessionEvent{profileName: profileName, progress: &ev}:
			case <-ctx.Done():
				return
			}
		case c, ok := <-done:
			if !ok {
				return
			}
			select {
			case s.sessionEvents <- sessionEvent{profileName: profileName, terminal: &c}:
			case <-ctx.Done():
			}
			return
		}
	}
}

func (s *Synchronizer) handleSessionEvent(ctx context.Context, se sessionEvent) {
	rs, ok := s.sessions[se.profileName]
	if !ok {
		// watchSession only ever reports for a profile it was started with,
		// so this should be unreachable; record it rather than fail silently.
		recordStaleSessionEvent(ctx, se.profileName)
		return
	}
	if se.progress != nil {
		ev := *se.progress
		ev.ProfileName = se.profileName
		s.publish(ctx, ev)
		return
	}
	if se.terminal != nil {
		target, reason := terminalStateFor(*se.terminal, rs.pendingReason)
		rs.sess.SetFailureResult(target, reason, se.terminal.Message)
		if target == model.SessionDone {
			rs.sess.SetSuccessResult(se.terminal.Targets)
		}
		s.terminalizeSession(ctx, se.profileName, target, reason, se.terminal.Message)
	}
}

// terminalStateFor maps a plugin's reported Status onto the lifecycle's
// terminal SessionState set, falling back to pendingReason when the plugin
// itself reported no minor code (e.g. a forced abort from connectivity loss).
func terminalStateFor(c pluginrunner.Completion, pendingReason model.ReasonCode) (model.SessionState, model.ReasonCode) {
	reason := c.Minor
	if reason == "" {
		reason = pendingReason
	}
	switch c.Status {
	case model.StatusDone:
		return model.SessionDone, model.ReasonNone
	case model.StatusCancelled:
		return model.SessionCancelled, reason
	case model.StatusAborted:
		return model.SessionAborted, reason
	default:
		return model.SessionError, reason
	}
}

// terminalizeSession dispatches the terminal lifecycle event for an
// in-flight session, releases its resources, records retry/reschedule
// policy, and drains the queue. Used for both plugin-reported terminal
// events and orchestrator-forced terminations (abort, offline).
func (s *Synchronizer) terminalizeSession(ctx context.Context, profileName string, target model.SessionState, reason model.ReasonCode, message string) {
	rs, ok := s.sessions[profileName]
	if !ok {
		return
	}
	if rs.sess.Record.Result == nil {
		rs.sess.SetFailureResult(target, reason, message)
	}
	from := rs.sess.Record.State
	if _, err := rs.sess.Dispatch(lifecycle.TerminalEvent(target, reason), s.now()); err != nil {
		log.FromContext(ctx).Warn().Err(err).Str("profile", profileName).Msg("illegal terminal transition")
	}
	metrics.RecordTransition(string(from), string(target))
	metrics.RecordTerminal(string(target), string(reason))

	s.finishSession(ctx, profileName, rs, target)
}

// terminalizeNewSession handles a session that ends without ever being
// registered in s.sessions (a failed CREATED -> RESERVED dispatch, or a
// queued entry that is aborted, power-gated or whose profile vanished); it
// still must emit exactly one terminal result and release any storages the
// booker holds for this profile (none, for an entry that was only queued).
func (s *Synchronizer) terminalizeNewSession(ctx context.Context, sess *Session, target model.SessionState, reason model.ReasonCode, message string) {
	sess.SetFailureResult(target, reason, message)
	_, _ = sess.Dispatch(lifecycle.TerminalEvent(target, reason), s.now())
	metrics.RecordTerminal(string(target), string(reason))
	s.cfg.Booker.Release(s.cfg.Booker.OwnedBy(sess.Profile.Name))
	if sess.Profile.Created && target == model.SessionCancelled {
		_ = s.cfg.Profiles.Remove(sess.Profile.Name)
	}
	s.publish(ctx, model.Event{Kind: model.EventResultsAvailable, ProfileName: sess.Profile.Name})
	s.publishStatus(ctx, sess.Profile.Name, statusFor(target), message, reason)
}

func (s *Synchronizer) finishSession(ctx context.Context, profileName string, rs *runningSession, target model.SessionState) {
	delete(s.sessions, profileName)
	delete(s.socSuppressed, profileName)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))

	s.cfg.Runners.Cleanup(ctx, rs.handle)
	s.cfg.Booker.Release(rs.sess.Record.ReservedStorages)

	if rs.span != nil {
		if target == model.SessionDone {
			rs.span.SetStatus(codes.Ok, "")
		} else if rs.sess.Record.Result != nil {
			rs.span.SetStatus(codes.Error, string(rs.sess.Record.Result.Minor))
			rs.span.SetAttributes(telemetry.ReasonAttribute(string(rs.sess.Record.Result.Minor)))
		}
		rs.span.End()
	}

	s.publish(ctx, model.Event{
		Kind:        model.EventResultsAvailable,
		ProfileName: profileName,
	})
	result := rs.sess.Record.Result
	s.publishStatus(ctx, profileName, statusFor(target), result.Message, result.Minor)

	if rs.sess.Profile.Created && target == model.SessionCancelled {
		_ = s.cfg.Profiles.Remove(profileName)
	}
	s.rescheduleAfterFinish(ctx, profileName, rs.sess, target)
	s.maybeResolveDrain()
	s.drain(ctx)
}

// rescheduleAfterFinish implements spec.md §4.4's onSessionFinished
// rescheduling rule and §7's retry-reset-on-DONE rule.
func (s *Synchronizer) rescheduleAfterFinish(ctx context.Context, profileName string, sess *Session, target model.SessionState) {
	p, ok := s.cfg.Profiles.Get(profileName)
	if !ok || s.cfg.Scheduler == nil {
		return
	}
	if sess.Record.Scheduled && target == model.SessionError {
		if at, ok := s.cfg.Retry.NextRetry(profileName, s.now()); ok {
			s.cfg.Scheduler.AddProfileForSyncRetry(profileName, at)
			metrics.RetryScheduledTotal.Inc()
			return
		}
	}
	if target == model.SessionDone {
		s.cfg.Retry.Reset(profileName)
		p.LastSyncTime = s.now()
		p.LastSuccessfulSyncTime = p.LastSyncTime
		_ = s.cfg.Profiles.Put(p)
	}
	_, _ = s.cfg.Scheduler.NextFire(&p, s.now())
}

func (s *Synchronizer) socCancel(profileName string) {
	if s.cfg.SOCCancel != nil {
		s.cfg.SOCCancel(profileName)
	}
}

func syncTypeLabel(scheduled bool) string {
	if scheduled {
		return string(model.SyncScheduled)
	}
	return string(model.SyncManual)
}

func statusFor(state model.SessionState) model.Status {
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

// staleSessionEventCounter mirrors metrics.InvariantViolationTotal through
// the OTel metrics API, so a collector pipeline sees it alongside traces
// without needing to scrape the Prometheus endpoint separately.
var staleSessionEventCounter, _ = telemetry.Meter("syncd/orchestrator").Int64Counter(
	"syncd_stale_session_event_total",
	otelmetric.WithDescription("Session events received for a profile with no tracked running session."),
)

func recordStaleSessionEvent(ctx context.Context, profileName string) {
	metrics.RecordInvariantViolation("stale-session-event")
	if staleSessionEventCounter != nil {
		staleSessionEventCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("profile", profileName)))
	}
}
