// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package profilecodec

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/syncd/internal/model"
)

func sampleProfile() model.Profile {
	p := model.Profile{
		Name:              "hcontacts-sync",
		Enabled:           true,
		SyncType:          model.SyncScheduled,
		DestinationType:   model.DestinationOnline,
		ClientProfileName: "ovi-contacts-client",
		StorageNames:      []string{"hcontacts"},
		AllowedInternetTypes: []model.InternetType{
			model.InternetWifi, model.InternetEthernet,
		},
		Schedule: model.Schedule{Interval: 15 * time.Minute},
		LastSyncTime:             time.Unix(1_700_000_000, 0).UTC(),
		LastSuccessfulSyncTime:   time.Unix(1_699_999_000, 0).UTC(),
		SyncExternallyEnabled:    true,
		SyncExternallyDuringRush: true,
		Extra: map[string]string{
			"account-id": "42",
			"bt-address": "AA:BB:CC:DD:EE:FF",
		},
	}
	p.Schedule.SetRushWindow([]int{1, 2, 3, 4, 5}, 22*time.Hour, 6*time.Hour, 2*time.Minute)
	return p
}

func TestRoundTrip_EncodeDecode(t *testing.T) {
	p := sampleProfile()
	buf, err := Marshal(&p)
	require.NoError(t, err)

	got, err := Unmarshal(buf)
	require.NoError(t, err)

	if diff := cmp.Diff(p, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_NoRushWindow(t *testing.T) {
	p := model.Profile{
		Name:     "device-pair",
		SyncType: model.SyncManual,
		Schedule: model.Schedule{Interval: time.Hour},
	}
	buf, err := Marshal(&p)
	require.NoError(t, err)

	got, err := Unmarshal(buf)
	require.NoError(t, err)
	require.False(t, got.Schedule.HasRushWindow())
	require.Equal(t, p.Name, got.Name)
}
