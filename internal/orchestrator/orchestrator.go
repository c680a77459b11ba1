// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package orchestrator implements Synchronizer: the top-level single-
// threaded event loop that owns the session queue, storage booker,
// scheduler, sync-on-change coordinator, backup coordinator and external
// sync registry (spec.md §4.4, §5). Every other component in this module is
// a leaf the Synchronizer wires together; this package is deliberately the
// largest, mirroring teacher's manager.Orchestrator.Run as the busiest file
// in that codebase.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/syncd/internal/alarm"
	"github.com/ManuGH/syncd/internal/backup"
	"github.com/ManuGH/syncd/internal/booker"
	"github.com/ManuGH/syncd/internal/bus"
	"github.com/ManuGH/syncd/internal/connectivity"
	"github.com/ManuGH/syncd/internal/extsync"
	"github.com/ManuGH/syncd/internal/log"
	"github.com/ManuGH/syncd/internal/metrics"
	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/pluginrunner"
	"github.com/ManuGH/syncd/internal/queue"
	"github.com/ManuGH/syncd/internal/retry"
	"github.com/ManuGH/syncd/internal/scheduler"
)

// ProfileStore is the external collaborator owning persisted profile state
// (spec.md §1: "the profile store format... XML files on disk" is out of
// scope). The Synchronizer reads through Get/All, writes profile updates
// (synthesized inbound profiles, schedules, saved results, sync times) back
// through Put, and calls Remove only to drop a synthesized inbound profile
// whose session ends CANCELLED.
type ProfileStore interface {
	Get(name string) (model.Profile, bool)
	All() []model.Profile
	Put(p model.Profile) error
	Remove(name string) error
}

// runningSession is the orchestrator-side bookkeeping for one active (i.e.
// resource-occupying) session, keyed by profile name.
type runningSession struct {
	sess   *Session
	handle pluginrunner.Handle
	// pendingReason seeds the terminal reason if the plugin runner's own
	// completion carries none (e.g. a forced abort from connectivityChanged).
	pendingReason model.ReasonCode
	// span covers the session from RESERVED through its terminal event.
	span trace.Span
}

// Config bundles the collaborators and policy knobs Synchronizer needs.
// Every field is a leaf component constructed by cmd/syncd's wiring code.
type Config struct {
	Profiles     ProfileStore
	Bus          bus.Bus
	Booker       *booker.StorageBooker
	Queue        *queue.SessionQueue
	Scheduler    *scheduler.Scheduler
	Alarms       *alarm.Inventory
	Backup       *backup.Coordinator
	ExternalSync *extsync.Registry
	Connectivity *connectivity.Tracker
	Runners      pluginrunner.Runner
	Retry        *retry.Policy

	// SOCCancel cancels any pending sync-on-change debounce timer for a
	// profile; wired to soc.Coordinator.RemoveProfile by cmd/syncd. A manual
	// start or session start must win over a pending SOC fire (spec.md §4.4).
	SOCCancel func(profileName string)

	// AllowScheduledSyncOverCellular gates acceptScheduledSync's fallback
	// policy for CELLULAR/UNKNOWN connectivity (spec.md §4.4).
	AllowScheduledSyncOverCellular bool

	// LowBattery and PowerSaving report the device's current gating state;
	// both default to "never" if nil. Checked only at drain/dequeue time
	// per spec.md §9's first open-question resolution.
	LowBattery  func() bool
	PowerSaving func() bool

	// ProfileChangeCoalesce is the debounce window for profileChanged
	// (spec.md §4.4: "arm 30s coalescing timer"). Defaults to 30s.
	ProfileChangeCoalesce time.Duration
}

// Synchronizer is the session orchestrator: the sole mutator of session,
// queue and booker state (spec.md §5). All exported methods are safe for
// concurrent use; they hand off to the single event-loop goroutine running
// inside Run.
type Synchronizer struct {
	cfg Config

	cmds           chan cmd
	sessionEvents  chan sessionEvent
	schedulerFired <-chan string
	socFired       chan string
	changeFireCh   chan string

	sessions         map[string]*runningSession
	waitingForOnline map[string]model.Profile
	changeTriggers   map[string]*changeTrigger
	socSuppressed    map[string]bool

	online     bool
	onlineType model.InternetType

	// pendingDrainReply holds the backupStart/restoreStart caller's reply
	// handle open until every active session reaches a terminal state
	// (spec.md §4.6's delayed-reply protocol).
	pendingDrainReply chan<- struct{}

	sf singleflight.Group

	nowFn func() time.Time
}

// New constructs a Synchronizer. Call Run to start its event loop.
func New(cfg Config) *Synchronizer {
	if cfg.ProfileChangeCoalesce <= 0 {
		cfg.ProfileChangeCoalesce = 30 * time.Second
	}
	s := &Synchronizer{
		cfg:              cfg,
		cmds:             make(chan cmd, 64),
		sessionEvents:    make(chan sessionEvent, 128),
		socFired:         make(chan string, 32),
		changeFireCh:     make(chan string, 32),
		sessions:         make(map[string]*runningSession),
		waitingForOnline: make(map[string]model.Profile),
		changeTriggers:   make(map[string]*changeTrigger),
		socSuppressed:    make(map[string]bool),
		nowFn:            time.Now,
	}
	if cfg.Scheduler != nil {
		s.schedulerFired = cfg.Scheduler.Fired()
	}
	return s
}

// SOCTrigger hands a fired SOC timer's profile name to the event loop
// without blocking (the name is dropped and counted if the channel is
// full), so servicing the fire happens on the same goroutine that mutates
// session state. cmd/syncd calls it from the soc.New onFire callback.
func (s *Synchronizer) SOCTrigger(profileName string) {
	select {
	case s.socFired <- profileName:
	default:
		metrics.IncBusDrop("soc-fired")
	}
}

func (s *Synchronizer) now() time.Time {
	if s.nowFn != nil {
		return s.nowFn()
	}
	return time.Now()
}

// Run drives the single-threaded cooperative event loop (spec.md §5) until
// ctx is cancelled. It is the only goroutine that mutates Synchronizer
// state, the session queue, the booker, or any Session; every other method
// on this type communicates with it exclusively through channels.
func (s *Synchronizer) Run(ctx context.Context) error {
	logger := log.WithComponent("orchestrator")
	logger.Info().Msg("synchronizer event loop starting")

	var backupStarts, backupDones <-chan backup.Request
	if s.cfg.Backup != nil {
		backupStarts = s.cfg.Backup.Starts()
		backupDones = s.cfg.Backup.Dones()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("synchronizer event loop stopping")
			return ctx.Err()

		case c := <-s.cmds:
			s.dispatchCmd(ctx, c)

		case profileName := <-s.schedulerFired:
			s.handleAlarmFired(ctx, profileName)

		case profileName := <-s.socFired:
			s.handleSOCFired(ctx, profileName)

		case se := <-s.sessionEvents:
			s.handleSessionEvent(ctx, se)

		case req := <-backupStarts:
			s.handleBackupStart(ctx, req)

		case req := <-backupDones:
			s.handleBackupDone(ctx, req)

		case pn := <-s.changeFireCh:
			s.processChangeTrigger(ctx, pn)
		}
	}
}

func (s *Synchronizer) publish(ctx context.Context, ev model.Event) {
	if s.cfg.Bus == nil {
		return
	}
	if err := s.cfg.Bus.Publish(ctx, string(ev.Kind), ev); err != nil {
		log.FromContext(ctx).Warn().Err(err).Str("topic", string(ev.Kind)).Msg("publish failed")
	}
}

func (s *Synchronizer) publishStatus(ctx context.Context, profileName string, status model.Status, message string, reason model.ReasonCode) {
	s.publish(ctx, model.Event{
		Kind:        model.EventSyncStatus,
		ProfileName: profileName,
		Status:      status,
		Message:     message,
		Minor:       reason,
	})
}

func (s *Synchronizer) hasActiveClientProfile(clientProfileName string) bool {
	for _, rs := range s.sessions {
		if rs.sess.Profile.ClientProfileName == clientProfileName {
			return true
		}
	}
	return false
}

// errf is a small helper keeping terminal-path error formatting consistent.
func errf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
