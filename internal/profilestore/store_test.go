// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package profilestore

import (
	"path/filepath"
	"testing"

	"github.com/ManuGH/syncd/internal/model"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	p := model.Profile{
		Name:              "hcontacts-profile",
		Enabled:           true,
		SyncType:          model.SyncScheduled,
		DestinationType:   model.DestinationOnline,
		ClientProfileName: "ovi-contacts-client",
		StorageNames:      []string{"hcontacts"},
		Extra:             map[string]string{"accountId": "42"},
	}
	if err := s.Put(p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := s.Get("hcontacts-profile")
	if !ok {
		t.Fatalf("Get: not found after Put")
	}
	if got.Name != p.Name || got.ClientProfileName != p.ClientProfileName {
		t.Fatalf("got %+v, want %+v", got, p)
	}
	if got.Extra["accountId"] != "42" {
		t.Fatalf("Extra not round-tripped: %+v", got.Extra)
	}
}

func TestOpenReloadsFromDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s1.Put(model.Profile{Name: "p1", Enabled: true}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	all := s2.All()
	if len(all) != 1 || all[0].Name != "p1" {
		t.Fatalf("reloaded profiles = %+v, want [p1]", all)
	}
}

func TestRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(model.Profile{Name: "p1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Remove("p1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Get("p1"); ok {
		t.Fatalf("p1 still present after Remove")
	}
	// Removing an already-absent profile is not an error.
	if err := s.Remove("p1"); err != nil {
		t.Fatalf("Remove (again): %v", err)
	}
}

func TestAllReturnsIndependentSnapshots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(model.Profile{Name: "p1", StorageNames: []string{"hcontacts"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	all := s.All()
	all[0].StorageNames[0] = "mutated"

	got, _ := s.Get("p1")
	if got.StorageNames[0] != "hcontacts" {
		t.Fatalf("mutation of All() result leaked into store: %+v", got)
	}
}
