// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "fmt"

// Validate checks invariants the loader cannot enforce per-field, mirroring
// teacher's final Validate(cfg) pass in Loader.Load.
func Validate(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrMissingDataDir
	}
	switch cfg.Guard.Backend {
	case GuardSqlite:
	case GuardRedis:
		if cfg.Guard.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidGuardBackend, cfg.Guard.Backend)
	}
	if cfg.Guard.TTL <= 0 {
		return fmt.Errorf("config: guard.ttl must be positive, got %s", cfg.Guard.TTL)
	}
	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.ExporterType {
		case "grpc", "http":
		default:
			return fmt.Errorf("config: telemetry.exporter_type must be \"grpc\" or \"http\", got %q", cfg.Telemetry.ExporterType)
		}
	}
	return nil
}
