// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// SessionRecord is the state-store source of truth for a sync session's
// client-visible state. One record exists per active sync.
type SessionRecord struct {
	ProfileName   string       `json:"profileName"`
	ClientProfile string       `json:"clientProfile"`
	State         SessionState `json:"state"`
	Scheduled     bool         `json:"scheduled"`
	Reason        ReasonCode   `json:"reason,omitempty"`
	Message       string       `json:"message,omitempty"`

	// ReservedStorages holds the storage names reserved for this session;
	// populated on transition into RESERVED, cleared on any terminal exit.
	ReservedStorages []string `json:"reservedStorages,omitempty"`

	// Result is set only once the session reaches a terminal state.
	Result *SyncResult `json:"result,omitempty"`

	// Created mirrors Profile.Created: true if the profile backing this
	// session was synthesized for an inbound connection and has not yet
	// been committed to the profile store.
	Created bool `json:"created,omitempty"`

	CreatedAtUnix int64 `json:"createdAtUnix"`
	UpdatedAtUnix int64 `json:"updatedAtUnix"`
}
