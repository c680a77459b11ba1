// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/pluginrunner"
)

// cmdKind tags a cmd for dispatchCmd's switch. Every externally-triggered
// entry point from spec.md §4.4 that mutates state funnels through here so
// it runs on the single event-loop goroutine.
type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdAbort
	cmdConnectivityChanged
	cmdProfileChanged
	cmdInboundConnection
	cmdRunningSyncList
	cmdLastSyncResult
	cmdSetSyncSchedule
	cmdSaveSyncResults
	cmdVisibleProfiles
	cmdProfilesByKey
	cmdProfilesByType
)

// cmd is the single envelope type carried on Synchronizer.cmds. Only the
// fields relevant to Kind are populated.
type cmd struct {
	kind cmdKind

	profileName string
	profile     model.Profile // used by cmdInboundConnection's synthesized candidate set

	online bool
	connType model.InternetType

	changeKind string // ADDED | MODIFIED | REMOVED
	changeXML  string

	peerAddress     string
	peerDisplayName string

	// key/value back requestSyncProfilesByKey; profileType backs
	// requestProfilesByType (spec.md §6).
	key         string
	value       string
	profileType string

	reply chan cmdResult
}

// cmdResult is the synchronous reply for cmd kinds that have one.
type cmdResult struct {
	ok       bool
	err      error
	names    []string
	profile  model.Profile
	profiles []model.Profile
	found    bool
}

// sessionEvent is delivered by the per-session watcher goroutine spawned in
// beginSession; it is the only way Progress/Done events reach the event
// loop, per spec.md §5's "plugin runners execute in separate worker
// tasks... communicate... through a progress stream [and] a single terminal
// completion event".
type sessionEvent struct {
	profileName string
	progress    *model.Event
	terminal    *pluginrunner.Completion
}

func (s *Synchronizer) dispatchCmd(ctx context.Context, c cmd) {
	switch c.kind {
	case cmdStart:
		s.handleStart(ctx, c)
	case cmdAbort:
		s.handleAbort(ctx, c)
	case cmdConnectivityChanged:
		s.handleConnectivityChanged(ctx, c)
	case cmdProfileChanged:
		s.handleProfileChanged(ctx, c)
	case cmdInboundConnection:
		s.handleInboundConnection(ctx, c)
	case cmdRunningSyncList:
		s.handleRunningSyncList(c)
	case cmdLastSyncResult:
		s.handleLastSyncResult(c)
	case cmdSetSyncSchedule:
		s.handleSetSyncSchedule(ctx, c)
	case cmdSaveSyncResults:
		s.handleSaveSyncResults(ctx, c)
	case cmdVisibleProfiles:
		s.handleVisibleProfiles(c)
	case cmdProfilesByKey:
		s.handleProfilesByKey(c)
	case cmdProfilesByType:
		s.handleProfilesByType(c)
	}
}

func reply(c cmd, r cmdResult) {
	if c.reply == nil {
		return
	}
	select {
	case c.reply <- r:
	default:
	}
}
