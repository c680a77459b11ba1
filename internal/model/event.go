// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// EventKind identifies which of the daemon's external event topics an
// Event was published on (spec.md §6's "Events" list).
type EventKind string

const (
	EventSyncStatus             EventKind = "syncStatus"
	EventProfileChanged         EventKind = "profileChanged"
	EventResultsAvailable       EventKind = "resultsAvailable"
	EventTransferProgress       EventKind = "transferProgress"
	EventBackupInProgress       EventKind = "backupInProgress"
	EventBackupDone             EventKind = "backupDone"
	EventRestoreInProgress      EventKind = "restoreInProgress"
	EventRestoreDone            EventKind = "restoreDone"
	EventSyncedExternallyStatus EventKind = "syncedExternallyStatus"
	EventStatusChanged          EventKind = "statusChanged"
	EventStorageReleased        EventKind = "storageReleased"
)

// Event is the daemon's single published payload shape. Only the fields
// relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind EventKind

	ProfileName   string
	ClientProfile string
	Status        Status
	Message       string
	Minor         ReasonCode

	ProfileChangeKind string // ADDED, MODIFIED, REMOVED
	ProfileXML        string

	DatabaseName string
	TransferType string
	MimeType     string
	ItemCount    int

	AccountID        string
	ExternallySynced bool

	PrevSyncTimeUnix int64
	NextSyncTimeUnix int64
}
