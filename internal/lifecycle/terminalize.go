// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import "github.com/ManuGH/syncd/internal/model"

// Outcome is the canonical terminal mapping applied by Dispatch for an
// EvTerminalize event.
type Outcome struct {
	State  model.SessionState
	Reason model.ReasonCode
}

var terminalStates = map[model.SessionState]bool{
	model.SessionDone:      true,
	model.SessionError:     true,
	model.SessionCancelled: true,
	model.SessionAborted:   true,
}

// TerminalOutcome validates that ev.Target is one of the four recognized
// terminal states, defaulting to ERROR with INTERNAL_ERROR if the caller
// supplied something else (a caller bug, not a reachable plugin outcome).
func TerminalOutcome(ev Event) Outcome {
	if terminalStates[ev.Target] {
		return Outcome{State: ev.Target, Reason: ev.Reason}
	}
	return Outcome{State: model.SessionError, Reason: model.ReasonInternalError}
}
