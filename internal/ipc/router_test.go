// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ipc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/syncd/internal/bus"
	"github.com/ManuGH/syncd/internal/model"
)

// fakeSync is a Synchronizer test double scripted per-call.
type fakeSync struct {
	startOK     bool
	startErr    error
	runningList []string
	lastResult  model.Profile
	lastFound   bool
	visible     []model.Profile
}

func (f *fakeSync) StartSync(ctx context.Context, name string) (bool, error) {
	return f.startOK, f.startErr
}
func (f *fakeSync) AbortSync(ctx context.Context, name string) error { return nil }
func (f *fakeSync) GetRunningSyncList(ctx context.Context) ([]string, error) {
	return f.runningList, nil
}
func (f *fakeSync) SetSyncSchedule(ctx context.Context, name, xml string) (bool, error) {
	return true, nil
}
func (f *fakeSync) SaveSyncResults(ctx context.Context, name, xml string) (bool, error) {
	return true, nil
}
func (f *fakeSync) GetLastSyncResult(ctx context.Context, name string) (model.Profile, bool, error) {
	return f.lastResult, f.lastFound, nil
}
func (f *fakeSync) VisibleProfiles(ctx context.Context) ([]model.Profile, error) {
	return f.visible, nil
}
func (f *fakeSync) ProfilesByKey(ctx context.Context, key, value string) ([]model.Profile, error) {
	return f.visible, nil
}
func (f *fakeSync) ProfilesByType(ctx context.Context, profileType string) ([]model.Profile, error) {
	return f.visible, nil
}

var _ Synchronizer = (*fakeSync)(nil)

func TestHandleStartSync(t *testing.T) {
	sync := &fakeSync{startOK: true}
	s := New(Config{Sync: sync, Bus: bus.NewMemoryBus()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/hcontacts/sync", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"started":true`) {
		t.Fatalf("body = %s, want started:true", rec.Body.String())
	}
}

func TestHandleRunningSyncList(t *testing.T) {
	sync := &fakeSync{runningList: []string{"A", "B"}}
	s := New(Config{Sync: sync, Bus: bus.NewMemoryBus()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "A") || !strings.Contains(rec.Body.String(), "B") {
		t.Fatalf("body = %s, want both profile names", rec.Body.String())
	}
}

func TestHandleLastResultNotFound(t *testing.T) {
	sync := &fakeSync{lastFound: false}
	s := New(Config{Sync: sync, Bus: bus.NewMemoryBus()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/ghost/results", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleVisibleProfiles(t *testing.T) {
	sync := &fakeSync{visible: []model.Profile{{Name: "hcontacts-profile", Enabled: true}}}
	s := New(Config{Sync: sync, Bus: bus.NewMemoryBus()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hcontacts-profile") {
		t.Fatalf("body = %s, want profile name in XML", rec.Body.String())
	}
}

func TestHandleStartSync_RateLimited(t *testing.T) {
	sync := &fakeSync{startOK: true}
	s := New(Config{Sync: sync, Bus: bus.NewMemoryBus(), RateLimitRPS: 1})

	ok := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/hcontacts/sync", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, ok)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/other/sync", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := New(Config{Sync: &fakeSync{}, Bus: bus.NewMemoryBus()})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
