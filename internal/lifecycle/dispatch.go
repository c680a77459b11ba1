// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"fmt"
	"time"

	"github.com/ManuGH/syncd/internal/model"
)

// Dispatch resolves and applies the next transition for rec given event ev.
// It is the only entry point the orchestrator uses to mutate session state;
// every other package treats SessionRecord.State as read-only.
func Dispatch(rec *model.SessionRecord, ev Event, now time.Time) (Transition, error) {
	if rec.State.IsTerminal() {
		// Terminal states have no exits: reject the event, keep the record.
		return Transition{From: rec.State, To: rec.State, Event: ev.Kind}, fmt.Errorf("%w: %s + %d", ErrIllegalTransition, rec.State, ev.Kind)
	}

	if ev.Kind == EvTerminalize {
		out := TerminalOutcome(ev)
		tr := Transition{From: rec.State, To: out.State, Event: EvTerminalize, Reason: out.Reason}
		ApplyTransition(rec, tr, now)
		return tr, nil
	}

	decision, ok := DecisionFor(rec.State, ev.Kind)
	if !ok || !decision.Allowed {
		return illegalTransition(rec, ev, now)
	}
	tr, ok := TransitionFor(rec.State, ev.Kind)
	if !ok {
		return illegalTransition(rec, ev, now)
	}
	if ev.Reason != "" {
		tr.Reason = ev.Reason
	}

	ApplyTransition(rec, tr, now)
	return tr, nil
}

func illegalTransition(rec *model.SessionRecord, ev Event, now time.Time) (Transition, error) {
	from := rec.State
	tr := Transition{From: from, To: model.SessionError, Event: ev.Kind, Reason: model.ReasonInternalError}
	ApplyTransition(rec, tr, now)
	return tr, fmt.Errorf("%w: %s + %d", ErrIllegalTransition, from, ev.Kind)
}
