// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopFIFO(t *testing.T) {
	q := New()
	require.True(t, q.Push(Entry{ProfileName: "A"}))
	require.True(t, q.Push(Entry{ProfileName: "B"}))

	e, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "A", e.ProfileName)

	e, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "B", e.ProfileName)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestPushDuplicateIsNoOp(t *testing.T) {
	q := New()
	require.True(t, q.Push(Entry{ProfileName: "A"}))
	require.False(t, q.Push(Entry{ProfileName: "A"}))
	require.Equal(t, 1, q.Len())
}

func TestRemoveFromMiddle(t *testing.T) {
	q := New()
	q.Push(Entry{ProfileName: "A"})
	q.Push(Entry{ProfileName: "B"})
	q.Push(Entry{ProfileName: "C"})

	require.True(t, q.Remove("B"))
	require.False(t, q.Contains("B"))

	e, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "A", e.ProfileName)
	e, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "C", e.ProfileName)
}

func TestHasClientProfile(t *testing.T) {
	q := New()
	q.Push(Entry{ProfileName: "A", ClientProfileName: "contacts"})
	require.True(t, q.HasClientProfile("contacts"))
	require.False(t, q.HasClientProfile("calendar"))
}
