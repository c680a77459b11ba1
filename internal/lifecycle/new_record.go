// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"time"

	"github.com/ManuGH/syncd/internal/model"
)

// NewSessionRecord initializes a session record with canonical lifecycle
// defaults: state CREATED, no reason, freshly stamped timestamps.
func NewSessionRecord(profileName, clientProfile string, scheduled bool, now time.Time) *model.SessionRecord {
	return &model.SessionRecord{
		ProfileName:   profileName,
		ClientProfile: clientProfile,
		State:         model.SessionCreated,
		Scheduled:     scheduled,
		CreatedAtUnix: now.Unix(),
		UpdatedAtUnix: now.Unix(),
	}
}
