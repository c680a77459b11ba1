// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"time"

	"github.com/ManuGH/syncd/internal/model"
)

// ApplyTransition mutates the session record according to the transition.
func ApplyTransition(rec *model.SessionRecord, tr Transition, now time.Time) {
	rec.State = tr.To
	if tr.Reason != "" {
		rec.Reason = tr.Reason
	}
	rec.UpdatedAtUnix = now.Unix()
}
