// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ipc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/syncd/internal/deleteditems"
)

// itemDTO and deletedItemDTO are the wire shapes for deleteditems.Item and
// deleteditems.DeletedItem, RFC3339-encoding the time fields spec.md §6
// requires stored UTC and returned local.
type itemDTO struct {
	ItemID       string    `json:"itemId"`
	CreationTime time.Time `json:"creationTime"`
}

type deletedItemDTO struct {
	ItemID       string    `json:"itemId"`
	CreationTime time.Time `json:"creationTime"`
	DeleteTime   time.Time `json:"deleteTime"`
}

type unavailableError string

func (e unavailableError) Error() string { return string(e) }

var errDeletedItemsUnavailable = unavailableError("deleted-items ledger not configured")

// handleSetSnapshot implements PUT /profiles/{name}/deleted-items/snapshot,
// backing setSnapshot(xs).
func (s *Server) handleSetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.deletedItems == nil {
		writeError(w, http.StatusNotImplemented, errDeletedItemsUnavailable)
		return
	}
	name := chi.URLParam(r, "name")
	var dtos []itemDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	store, err := s.deletedItems.For(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	xs := make([]deleteditems.Item, 0, len(dtos))
	for _, d := range dtos {
		xs = append(xs, deleteditems.Item{ItemID: d.ItemID, CreationTime: d.CreationTime})
	}
	if err := store.SetSnapshot(r.Context(), xs); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSnapshot implements GET /profiles/{name}/deleted-items/snapshot,
// backing getSnapshot().
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.deletedItems == nil {
		writeError(w, http.StatusNotImplemented, errDeletedItemsUnavailable)
		return
	}
	name := chi.URLParam(r, "name")
	store, err := s.deletedItems.For(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	xs, err := store.GetSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]itemDTO, 0, len(xs))
	for _, x := range xs {
		out = append(out, itemDTO{ItemID: x.ItemID, CreationTime: x.CreationTime})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAddDeletedItems implements POST /profiles/{name}/deleted-items,
// backing addDeletedItems(xs) (batch insert).
func (s *Server) handleAddDeletedItems(w http.ResponseWriter, r *http.Request) {
	if s.deletedItems == nil {
		writeError(w, http.StatusNotImplemented, errDeletedItemsUnavailable)
		return
	}
	name := chi.URLParam(r, "name")
	var dtos []deletedItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	store, err := s.deletedItems.For(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	xs := make([]deleteditems.DeletedItem, 0, len(dtos))
	for _, d := range dtos {
		xs = append(xs, deleteditems.DeletedItem{ItemID: d.ItemID, CreationTime: d.CreationTime, DeleteTime: d.DeleteTime})
	}
	if err := store.AddDeletedItems(r.Context(), xs); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDeletedItems implements GET /profiles/{name}/deleted-items?since=,
// backing getDeletedItems(since) -> rows with creationtime < since < deletetime.
func (s *Server) handleGetDeletedItems(w http.ResponseWriter, r *http.Request) {
	if s.deletedItems == nil {
		writeError(w, http.StatusNotImplemented, errDeletedItemsUnavailable)
		return
	}
	name := chi.URLParam(r, "name")
	since, err := time.Parse(time.RFC3339, r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	store, err := s.deletedItems.For(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	xs, err := store.GetDeletedItems(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]deletedItemDTO, 0, len(xs))
	for _, x := range xs {
		out = append(out, deletedItemDTO{ItemID: x.ItemID, CreationTime: x.CreationTime, DeleteTime: x.DeleteTime})
	}
	writeJSON(w, http.StatusOK, out)
}
