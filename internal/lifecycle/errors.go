// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import "errors"

var (
	// ErrIllegalTransition is returned when an event is not valid from the
	// session's current state (including any event on a terminal state).
	ErrIllegalTransition = errors.New("lifecycle: illegal transition")
)
