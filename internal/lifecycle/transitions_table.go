// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import "github.com/ManuGH/syncd/internal/model"

// Transition is a single allowed edge in the SyncSession state machine.
type Transition struct {
	From   model.SessionState
	To     model.SessionState
	Event  EventKind
	Reason model.ReasonCode
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ForbiddenTerminalAbsorbing = "terminal_absorbing"
	ForbiddenOutOfOrder        = "out_of_order"
	ForbiddenAlreadyInState    = "already_in_state"
)

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

var transitionsTable = []Transition{
	{From: model.SessionCreated, To: model.SessionReserved, Event: EvReserved},
	{From: model.SessionReserved, To: model.SessionStarting, Event: EvPluginInitOK},
	{From: model.SessionStarting, To: model.SessionRunning, Event: EvPluginStartOK},
}

// TransitionFor returns the allowed table-driven transition for state+event.
// EvTerminalize is handled separately by Dispatch via TerminalOutcome, since
// its destination depends on cause/reason rather than a fixed edge.
func TransitionFor(from model.SessionState, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// decisionTable defines an explicit decision for every non-terminal
// state x non-terminalize event combination.
var decisionTable = map[model.SessionState]map[EventKind]Decision{
	model.SessionCreated: {
		EvReserved:      allowed(),
		EvPluginInitOK:  forbid(ForbiddenOutOfOrder),
		EvPluginStartOK: forbid(ForbiddenOutOfOrder),
	},
	model.SessionReserved: {
		EvReserved:      forbid(ForbiddenAlreadyInState),
		EvPluginInitOK:  allowed(),
		EvPluginStartOK: forbid(ForbiddenOutOfOrder),
	},
	model.SessionStarting: {
		EvReserved:      forbid(ForbiddenOutOfOrder),
		EvPluginInitOK:  forbid(ForbiddenAlreadyInState),
		EvPluginStartOK: allowed(),
	},
	model.SessionRunning: {
		EvReserved:      forbid(ForbiddenOutOfOrder),
		EvPluginInitOK:  forbid(ForbiddenOutOfOrder),
		EvPluginStartOK: forbid(ForbiddenAlreadyInState),
	},
}

// DecisionFor returns the explicit decision for state x event. EvTerminalize
// is always allowed from any non-terminal state, so it is not present in the
// table; callers check IsTerminal before consulting it.
func DecisionFor(from model.SessionState, ev EventKind) (Decision, bool) {
	if ev == EvTerminalize {
		return allowed(), true
	}
	m, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := m[ev]
	return d, ok
}
