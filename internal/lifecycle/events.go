// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package lifecycle implements the SyncSession state machine as a table-driven
// dispatcher: a fixed set of states, a fixed set of events, and one function
// that resolves (state, event) to the next state.
package lifecycle

import "github.com/ManuGH/syncd/internal/model"

// EventKind is a domain event in the session lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvReserved
	EvPluginInitOK
	EvPluginStartOK
	EvTerminalize // derived from cause/reason; resolves to DONE/ERROR/CANCELLED/ABORTED
)

// Event carries optional metadata for a transition. For EvTerminalize,
// Target names the terminal state the orchestrator has already determined
// (from the plugin's reported status or a pre-session policy rejection);
// Dispatch still validates that the edge is legal from the current state.
type Event struct {
	Kind   EventKind
	Reason model.ReasonCode
	Target model.SessionState
}

// TerminalEvent builds the EvTerminalize event for a known target state
// and reason, used by setFailureResult and by RUNNING's four exits alike.
func TerminalEvent(target model.SessionState, reason model.ReasonCode) Event {
	return Event{Kind: EvTerminalize, Reason: reason, Target: target}
}
