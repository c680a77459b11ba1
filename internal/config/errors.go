// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

// ErrMissingDataDir is returned when DataDir resolves to empty after
// defaults, file and environment have all been applied.
var ErrMissingDataDir = errors.New("config: data_dir must not be empty")

// ErrInvalidGuardBackend is returned when guard.backend is neither "sqlite"
// nor "redis".
var ErrInvalidGuardBackend = errors.New("config: guard.backend must be \"sqlite\" or \"redis\"")

// ErrMissingRedisAddr is returned when guard.backend is "redis" but no
// redis address was configured.
var ErrMissingRedisAddr = errors.New("config: guard.redis_addr is required when guard.backend is \"redis\"")
