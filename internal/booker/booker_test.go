// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package booker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReserve_AllOrNothing(t *testing.T) {
	b := New()
	require.True(t, b.Reserve([]string{"hcontacts"}, "A"))
	require.False(t, b.Reserve([]string{"hcontacts", "hcalendar"}, "B"))

	owner, ok := b.Owner("hcalendar")
	require.False(t, ok)
	require.Empty(t, owner)
}

func TestReserve_SameOwnerStillBlocked(t *testing.T) {
	b := New()
	require.True(t, b.Reserve([]string{"hcontacts"}, "A"))
	require.False(t, b.Reserve([]string{"hcontacts"}, "A"))
}

func TestRelease_UnconditionalDrop(t *testing.T) {
	b := New()
	require.True(t, b.Reserve([]string{"hcontacts", "hcalendar"}, "A"))
	b.Release([]string{"hcontacts"})

	require.True(t, b.Reserve([]string{"hcontacts"}, "B"))
	require.True(t, b.Held([]string{"hcalendar"}))
}

func TestReserveOneReleaseOne(t *testing.T) {
	b := New()
	require.True(t, b.ReserveOne("hnotes", "A"))
	require.False(t, b.ReserveOne("hnotes", "B"))
	b.ReleaseOne("hnotes")
	require.True(t, b.ReserveOne("hnotes", "B"))
}

func TestOwnedBy(t *testing.T) {
	b := New()
	require.True(t, b.Reserve([]string{"hcontacts", "hcalendar"}, "A"))
	require.ElementsMatch(t, []string{"hcontacts", "hcalendar"}, b.OwnedBy("A"))
	require.Empty(t, b.OwnedBy("B"))
}
