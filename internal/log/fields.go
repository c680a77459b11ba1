// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldJobID         = "job_id"
	FieldProfileName   = "profile"
	FieldClientProfile = "client_profile"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldHandle    = "handle"

	// Sync fields
	FieldStorage    = "storage"
	FieldReasonCode = "reason_code"
	FieldAlarmID    = "alarm_id"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
