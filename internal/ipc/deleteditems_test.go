// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ipc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuGH/syncd/internal/bus"
	"github.com/ManuGH/syncd/internal/deleteditems"
)

func TestDeletedItemsSnapshotRoundTrip(t *testing.T) {
	mgr := deleteditems.OpenManager(t.TempDir())
	t.Cleanup(func() { _ = mgr.Close() })
	s := New(Config{Sync: &fakeSync{}, Bus: bus.NewMemoryBus(), DeletedItems: mgr})

	now := time.Now().UTC().Truncate(time.Second)
	body, _ := json.Marshal([]itemDTO{{ItemID: "a", CreationTime: now}})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profiles/hcontacts/deleted-items/snapshot", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT snapshot status = %d, want 204, body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profiles/hcontacts/deleted-items/snapshot", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET snapshot status = %d, want 200", rec.Code)
	}
	var got []itemDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "a" {
		t.Fatalf("got %+v, want one item 'a'", got)
	}
}

func TestDeletedItemsUnavailableWithoutManager(t *testing.T) {
	s := New(Config{Sync: &fakeSync{}, Bus: bus.NewMemoryBus()})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/hcontacts/deleted-items/snapshot", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
}

func TestGetDeletedItemsRangeQuery(t *testing.T) {
	mgr := deleteditems.OpenManager(t.TempDir())
	t.Cleanup(func() { _ = mgr.Close() })
	s := New(Config{Sync: &fakeSync{}, Bus: bus.NewMemoryBus(), DeletedItems: mgr})

	now := time.Now().UTC().Truncate(time.Second)
	body, _ := json.Marshal([]deletedItemDTO{
		{ItemID: "old", CreationTime: now.Add(-time.Hour), DeleteTime: now.Add(time.Hour)},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/hcontacts/deleted-items", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST status = %d, want 204, body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profiles/hcontacts/deleted-items?since="+now.Format(time.RFC3339), nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	var got []deletedItemDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "old" {
		t.Fatalf("got %+v, want one item 'old'", got)
	}
}
