// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"testing"
	"time"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/stretchr/testify/require"
)

func TestDispatch_HappyPath(t *testing.T) {
	now := time.Now()
	rec := NewSessionRecord("p1", "c1", false, now)

	tr, err := Dispatch(rec, Event{Kind: EvReserved}, now)
	require.NoError(t, err)
	require.Equal(t, model.SessionReserved, tr.To)

	tr, err = Dispatch(rec, Event{Kind: EvPluginInitOK}, now)
	require.NoError(t, err)
	require.Equal(t, model.SessionStarting, tr.To)

	tr, err = Dispatch(rec, Event{Kind: EvPluginStartOK}, now)
	require.NoError(t, err)
	require.Equal(t, model.SessionRunning, tr.To)
	require.False(t, rec.State.IsTerminal())

	tr, err = Dispatch(rec, TerminalEvent(model.SessionDone, model.ReasonNone), now)
	require.NoError(t, err)
	require.Equal(t, model.SessionDone, tr.To)
	require.True(t, rec.State.IsTerminal())
}

func TestDispatch_OutOfOrderIsIllegal(t *testing.T) {
	now := time.Now()
	rec := NewSessionRecord("p1", "c1", false, now)

	_, err := Dispatch(rec, Event{Kind: EvPluginStartOK}, now)
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.Equal(t, model.SessionError, rec.State)
	require.Equal(t, model.ReasonInternalError, rec.Reason)
}

func TestDispatch_TerminalStateAbsorbsEvents(t *testing.T) {
	now := time.Now()
	rec := NewSessionRecord("p1", "c1", false, now)
	_, err := Dispatch(rec, TerminalEvent(model.SessionCancelled, model.ReasonAborted), now)
	require.NoError(t, err)

	_, err = Dispatch(rec, Event{Kind: EvReserved}, now)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestDispatch_RunningExitsToAllFourTerminalStates(t *testing.T) {
	now := time.Now()
	for _, target := range []model.SessionState{
		model.SessionDone, model.SessionError, model.SessionCancelled, model.SessionAborted,
	} {
		rec := NewSessionRecord("p1", "c1", false, now)
		_, _ = Dispatch(rec, Event{Kind: EvReserved}, now)
		_, _ = Dispatch(rec, Event{Kind: EvPluginInitOK}, now)
		_, _ = Dispatch(rec, Event{Kind: EvPluginStartOK}, now)

		tr, err := Dispatch(rec, TerminalEvent(target, model.ReasonNone), now)
		require.NoError(t, err)
		require.Equal(t, target, tr.To)
	}
}

func TestTransitionTable_NoDuplicates(t *testing.T) {
	seen := map[model.SessionState]map[EventKind]bool{}
	for _, tr := range transitionsTable {
		if seen[tr.From] == nil {
			seen[tr.From] = map[EventKind]bool{}
		}
		require.False(t, seen[tr.From][tr.Event], "duplicate transition: %s + %d", tr.From, tr.Event)
		seen[tr.From][tr.Event] = true
	}
}
