// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model defines the value types shared across the sync orchestration
// daemon: profiles, schedules, alarms, and session records.
package model

// SessionState is the lifecycle state of a SyncSession.
// It is intentionally coarse-grained and stable across profiles.
type SessionState string

const (
	SessionCreated   SessionState = "CREATED"
	SessionReserved  SessionState = "RESERVED"
	SessionStarting  SessionState = "STARTING"
	SessionRunning   SessionState = "RUNNING"
	SessionDone      SessionState = "DONE"
	SessionError     SessionState = "ERROR"
	SessionCancelled SessionState = "CANCELLED"
	SessionAborted   SessionState = "ABORTED"
)

// IsTerminal returns true if the state is a final state for a session.
func (s SessionState) IsTerminal() bool {
	switch s {
	case SessionDone, SessionError, SessionCancelled, SessionAborted:
		return true
	default:
		return false
	}
}

// IsResourceOccupying returns true if a session in this state still holds
// reserved storages and/or a client-profile slot.
func (s SessionState) IsResourceOccupying() bool {
	switch s {
	case SessionReserved, SessionStarting, SessionRunning:
		return true
	default:
		return false
	}
}

// SyncType distinguishes manually-triggered syncs from scheduled ones.
type SyncType string

const (
	SyncManual    SyncType = "MANUAL"
	SyncScheduled SyncType = "SCHEDULED"
)

// DestinationType distinguishes a cloud/service destination from a paired device.
type DestinationType string

const (
	DestinationOnline DestinationType = "ONLINE"
	DestinationDevice DestinationType = "DEVICE"
)

// InternetType enumerates the connectivity classes a schedule's rush/cellular
// policy can discriminate on.
type InternetType string

const (
	InternetWifi     InternetType = "WIFI"
	InternetEthernet InternetType = "ETHERNET"
	InternetCellular InternetType = "CELLULAR"
	InternetUnknown  InternetType = "UNKNOWN"
)

// Status is the client-visible status reported over syncStatus events.
// Threshold: anything >= StatusError is terminal for the plugin session.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusStarted    Status = "STARTED"
	StatusProgress   Status = "PROGRESS"
	StatusStopping   Status = "STOPPING"
	StatusDone       Status = "DONE"
	StatusAborted    Status = "ABORTED"
	StatusCancelled  Status = "CANCELLED"
	StatusError      Status = "ERROR"
	StatusNotPossible Status = "NOTPOSSIBLE"
)

var statusOrder = map[Status]int{
	StatusQueued:      0,
	StatusStarted:     1,
	StatusProgress:    2,
	StatusStopping:    3,
	StatusDone:        4,
	StatusAborted:     5,
	StatusCancelled:   6,
	StatusError:       7,
	StatusNotPossible: 8,
}

// IsTerminal reports whether status is at or beyond the ERROR threshold
// or otherwise represents a finished plugin session.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusAborted, StatusCancelled, StatusError, StatusNotPossible:
		return true
	default:
		return false
	}
}

// ReasonCode is a compact, typed failure/decision signal attached to every
// terminal result.
type ReasonCode string

const (
	ReasonNone              ReasonCode = "R_NONE"
	ReasonInternalError     ReasonCode = "INTERNAL_ERROR"
	ReasonAborted           ReasonCode = "ABORTED"
	ReasonBackupInProgress  ReasonCode = "BACKUP_IN_PROGRESS"
	ReasonOfflineMode       ReasonCode = "OFFLINE_MODE"
	ReasonLowBatteryPower   ReasonCode = "LOW_BATTERY_POWER"
	ReasonPowerSavingMode   ReasonCode = "POWER_SAVING_MODE"
)
