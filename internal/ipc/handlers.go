// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ipc

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/profilecodec"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON problem-details-shaped error response, mirroring
// teacher's internal/api/errors.go writeError convention.
func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// profileXML encodes p as the XML snapshot the IPC surface hands callers
// (spec.md §6: every profile-shaped response is "xml").
func profileXML(p model.Profile) (string, error) {
	data, err := profilecodec.Marshal(&p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func profilesXML(ps []model.Profile) ([]string, error) {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		x, err := profileXML(p)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// handleStartSync implements POST /profiles/{name}/sync, backing
// startSync(profileName) -> bool.
func (s *Server) handleStartSync(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ok, err := s.sync.StartSync(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"started": ok})
}

// handleAbortSync implements POST /profiles/{name}/abort, backing
// abortSync(profileName).
func (s *Server) handleAbortSync(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.sync.AbortSync(r.Context(), name); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRunningSyncList implements GET /sessions, backing
// getRunningSyncList() -> [profileName].
func (s *Server) handleRunningSyncList(w http.ResponseWriter, r *http.Request) {
	names, err := s.sync.GetRunningSyncList(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// handleSetSchedule implements PUT /profiles/{name}/schedule, backing
// setSyncSchedule(profileName, xml) -> bool. The request body is the raw
// schedule XML fragment spec.md §6 describes.
func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ok, err := s.sync.SetSyncSchedule(r.Context(), name, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": ok})
}

// handleSaveResults implements POST /profiles/{name}/results, backing
// saveSyncResults(profileName, xml) -> bool.
func (s *Server) handleSaveResults(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ok, err := s.sync.SaveSyncResults(r.Context(), name, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": ok})
}

// handleLastResult implements GET /profiles/{name}/results, backing
// getLastSyncResult(profileName) -> xml.
func (s *Server) handleLastResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, found, err := s.sync.GetLastSyncResult(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, errNotFound(name))
		return
	}
	xml, err := profileXML(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml))
}

// handleVisibleProfiles implements GET /profiles, backing
// requestAllVisibleSyncProfiles() -> [xml].
func (s *Server) handleVisibleProfiles(w http.ResponseWriter, r *http.Request) {
	ps, err := s.sync.VisibleProfiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	xs, err := profilesXML(ps)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, xs)
}

// handleProfilesByKey implements GET /profiles/by-key?key=&value=, backing
// requestSyncProfilesByKey(key, value) -> [xml].
func (s *Server) handleProfilesByKey(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	value := r.URL.Query().Get("value")
	ps, err := s.sync.ProfilesByKey(r.Context(), key, value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	xs, err := profilesXML(ps)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, xs)
}

// handleProfilesByType implements GET /profiles/by-type?type=, backing
// requestProfilesByType(type) -> [xml].
func (s *Server) handleProfilesByType(w http.ResponseWriter, r *http.Request) {
	profileType := r.URL.Query().Get("type")
	ps, err := s.sync.ProfilesByType(r.Context(), profileType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	xs, err := profilesXML(ps)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, xs)
}

func readBody(r *http.Request) (string, error) {
	defer func() { _ = r.Body.Close() }()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type notFoundError string

func (e notFoundError) Error() string { return "profile not found: " + string(e) }

func errNotFound(name string) error { return notFoundError(name) }
