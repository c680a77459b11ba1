// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon's configuration with ENV > File > Defaults
// precedence, grounded on teacher's internal/config.Loader shape
// (parse-strict-file -> merge-env -> validate).
package config

import "time"

// GuardBackend selects the single-writer lock implementation.
type GuardBackend string

const (
	GuardSqlite GuardBackend = "sqlite"
	GuardRedis  GuardBackend = "redis"
)

// Config is the fully resolved daemon configuration.
type Config struct {
	// DataDir holds the daemon's on-disk state: alarms.sqlite,
	// deleteditems/<profile>.sqlite, extsync.badger, profiles/ and
	// storage/<name>/ (plus the guard database when the sqlite guard is used).
	DataDir string `yaml:"data_dir"`

	// ListenAddr is the internal/ipc HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`
	// MetricsAddr is the Prometheus /metrics bind address.
	MetricsAddr string `yaml:"metrics_addr"`

	LogLevel string `yaml:"log_level"`

	Guard GuardConfig `yaml:"guard"`

	// AllowScheduledSyncOverCellular mirrors spec.md §4.4's CELLULAR/UNKNOWN
	// fallback policy knob.
	AllowScheduledSyncOverCellular bool `yaml:"allow_scheduled_sync_over_cellular"`

	// ProfileChangeCoalesce is the profileChanged debounce window
	// (spec.md §4.4: "arm 30s coalescing timer").
	ProfileChangeCoalesce time.Duration `yaml:"profile_change_coalesce"`

	// RetryMaxTries caps consecutive scheduled-sync ERROR retries (0 = unlimited).
	RetryMaxTries int `yaml:"retry_max_tries"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GuardConfig configures the single-writer lock (internal/guard).
type GuardConfig struct {
	Backend GuardBackend  `yaml:"backend"`
	Owner   string        `yaml:"owner"`
	TTL     time.Duration `yaml:"ttl"`
	// RedisAddr is only consulted when Backend == GuardRedis.
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
}

// TelemetryConfig configures internal/telemetry's tracer provider.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	Environment  string  `yaml:"environment"`
	ExporterType string  `yaml:"exporter_type"` // "grpc" | "http"
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// FileConfig is the strict-parsed shape of the optional YAML config file;
// every field is a pointer so "absent from the file" is distinguishable
// from "explicitly zero", matching teacher's merge-by-presence approach
// (alias_conflict.go) at a scale appropriate to this daemon's smaller
// config surface.
type FileConfig struct {
	DataDir                        *string          `yaml:"data_dir"`
	ListenAddr                     *string          `yaml:"listen_addr"`
	MetricsAddr                    *string          `yaml:"metrics_addr"`
	LogLevel                       *string          `yaml:"log_level"`
	AllowScheduledSyncOverCellular *bool            `yaml:"allow_scheduled_sync_over_cellular"`
	ProfileChangeCoalesce          *time.Duration   `yaml:"profile_change_coalesce"`
	RetryMaxTries                  *int             `yaml:"retry_max_tries"`
	Guard                          *FileGuardConfig `yaml:"guard"`
	Telemetry                      *FileTelemetry   `yaml:"telemetry"`
}

// FileGuardConfig is the file-shape counterpart of GuardConfig.
type FileGuardConfig struct {
	Backend   *string        `yaml:"backend"`
	Owner     *string        `yaml:"owner"`
	TTL       *time.Duration `yaml:"ttl"`
	RedisAddr *string        `yaml:"redis_addr"`
	RedisKey  *string        `yaml:"redis_key"`
}

// FileTelemetry is the file-shape counterpart of TelemetryConfig.
type FileTelemetry struct {
	Enabled      *bool    `yaml:"enabled"`
	ServiceName  *string  `yaml:"service_name"`
	Environment  *string  `yaml:"environment"`
	ExporterType *string  `yaml:"exporter_type"`
	Endpoint     *string  `yaml:"endpoint"`
	SamplingRate *float64 `yaml:"sampling_rate"`
}
