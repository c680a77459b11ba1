// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pluginrunner defines the port the orchestrator uses to drive a
// sync plugin process: the imperative init/start/stop/cleanup interface,
// the progress event stream, and the single terminal completion event
// (spec.md §5). Implementations run in a separate worker task/thread from
// the orchestrator's single event loop; this package only declares the
// contract, mirroring teacher's internal/domain/session/ports.MediaPipeline.
package pluginrunner

import (
	"context"

	"github.com/ManuGH/syncd/internal/model"
)

// Handle is an opaque token identifying one running plugin invocation.
type Handle string

// Completion carries the single terminal event a Runner reports for a
// session: status, message, and minor reason code (spec.md §6).
type Completion struct {
	Status  model.Status
	Message string
	Minor   model.ReasonCode
	Targets []model.TargetCount
}

// Runner is the port the orchestrator uses to control a plugin process for
// one sync session. All four verbs are imperative; progress and completion
// are reported asynchronously on the channels returned by Progress/Done.
type Runner interface {
	// Init prepares the plugin for profile p, reserving whatever in-process
	// resources it needs. A non-nil error maps to a RESERVED -> ERROR
	// transition with ReasonInternalError.
	Init(ctx context.Context, p model.Profile) (Handle, error)

	// Start begins the sync proper. A non-nil error maps to STARTING ->
	// ERROR with ReasonInternalError; success transitions STARTING -> RUNNING.
	Start(ctx context.Context, h Handle) error

	// Stop requests the plugin abort a RUNNING session. It does not block
	// for completion; the plugin's own terminal event (via Done) drives the
	// lifecycle transition, per spec.md §5 ("no timeout; if the plugin
	// never completes the session remains RUNNING").
	Stop(ctx context.Context, h Handle) error

	// Cleanup releases any resources held for h once a session has reached
	// a terminal state.
	Cleanup(ctx context.Context, h Handle)

	// Progress returns the channel on which transferProgress/
	// syncProgressDetail/storageAcquired-shaped updates are delivered while
	// RUNNING.
	Progress(h Handle) <-chan model.Event

	// Done returns the channel on which the single terminal Completion for
	// h is delivered.
	Done(h Handle) <-chan Completion
}
