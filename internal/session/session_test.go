// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"testing"
	"time"

	"github.com/ManuGH/syncd/internal/lifecycle"
	"github.com/ManuGH/syncd/internal/model"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsInCreated(t *testing.T) {
	s := New(model.Profile{Name: "P"}, false)
	require.Equal(t, model.SessionCreated, s.Record.State)
	require.False(t, s.IsActive())
}

func TestSetFailureResult_AlwaysProducesOneResult(t *testing.T) {
	s := New(model.Profile{Name: "P"}, true)
	s.SetFailureResult(model.SessionError, model.ReasonOfflineMode, "no connectivity")

	_, err := s.Dispatch(lifecycle.TerminalEvent(model.SessionError, model.ReasonOfflineMode), time.Now())
	require.NoError(t, err)

	require.NotNil(t, s.Record.Result)
	require.Equal(t, model.StatusError, s.Record.Result.Major)
	require.Equal(t, model.ReasonOfflineMode, s.Record.Result.Minor)
	require.True(t, s.Record.State.IsTerminal())
}

func TestAbort_CallsCancel(t *testing.T) {
	called := false
	s := New(model.Profile{Name: "P"}, false)
	s.RunHandle.Cancel = func() { called = true }
	s.Abort()
	require.True(t, called)
}
