// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/syncd/internal/log"
)

// Loader loads daemon configuration with precedence ENV > File > Defaults,
// grounded on teacher's internal/config.Loader: parse the file strictly
// first, then let environment variables override, then validate once at
// the end.
type Loader struct {
	configPath string
	lookupEnv  envLookupFunc
}

// NewLoader returns a Loader reading from the real process environment.
func NewLoader(configPath string) *Loader {
	return NewLoaderWithEnv(configPath, defaultLookup)
}

// NewLoaderWithEnv returns a Loader with an injected environment lookup,
// for tests.
func NewLoaderWithEnv(configPath string, lookup envLookupFunc) *Loader {
	if lookup == nil {
		lookup = defaultLookup
	}
	return &Loader{configPath: configPath, lookupEnv: lookup}
}

// Load resolves the final Config: defaults, then an optional strict YAML
// file, then environment overrides, then validation.
func (l *Loader) Load() (Config, error) {
	cfg := defaults()

	if l.configPath != "" {
		fc, err := l.loadFile(l.configPath)
		if err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, fc)
	}

	l.mergeEnv(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		DataDir:                        "./data",
		ListenAddr:                     ":8080",
		MetricsAddr:                    ":9090",
		LogLevel:                       "info",
		AllowScheduledSyncOverCellular: false,
		ProfileChangeCoalesce:          30 * time.Second,
		RetryMaxTries:                  0,
		Guard: GuardConfig{
			Backend: GuardSqlite,
			Owner:   hostnameOrDefault(),
			TTL:     30 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			ServiceName:  "syncd",
			Environment:  "development",
			ExporterType: "grpc",
			SamplingRate: 1.0,
		},
	}
}

func hostnameOrDefault() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "syncd"
}

// loadFile strict-parses a YAML config file, rejecting unknown fields the
// same way teacher's Loader.loadFile does.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fc, nil
}

func mergeFile(cfg *Config, fc *FileConfig) {
	if fc == nil {
		return
	}
	if fc.DataDir != nil {
		cfg.DataDir = *fc.DataDir
	}
	if fc.ListenAddr != nil {
		cfg.ListenAddr = *fc.ListenAddr
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.AllowScheduledSyncOverCellular != nil {
		cfg.AllowScheduledSyncOverCellular = *fc.AllowScheduledSyncOverCellular
	}
	if fc.ProfileChangeCoalesce != nil {
		cfg.ProfileChangeCoalesce = *fc.ProfileChangeCoalesce
	}
	if fc.RetryMaxTries != nil {
		cfg.RetryMaxTries = *fc.RetryMaxTries
	}
	if fc.Guard != nil {
		g := fc.Guard
		if g.Backend != nil {
			cfg.Guard.Backend = GuardBackend(*g.Backend)
		}
		if g.Owner != nil {
			cfg.Guard.Owner = *g.Owner
		}
		if g.TTL != nil {
			cfg.Guard.TTL = *g.TTL
		}
		if g.RedisAddr != nil {
			cfg.Guard.RedisAddr = *g.RedisAddr
		}
		if g.RedisKey != nil {
			cfg.Guard.RedisKey = *g.RedisKey
		}
	}
	if fc.Telemetry != nil {
		t := fc.Telemetry
		if t.Enabled != nil {
			cfg.Telemetry.Enabled = *t.Enabled
		}
		if t.ServiceName != nil {
			cfg.Telemetry.ServiceName = *t.ServiceName
		}
		if t.Environment != nil {
			cfg.Telemetry.Environment = *t.Environment
		}
		if t.ExporterType != nil {
			cfg.Telemetry.ExporterType = *t.ExporterType
		}
		if t.Endpoint != nil {
			cfg.Telemetry.Endpoint = *t.Endpoint
		}
		if t.SamplingRate != nil {
			cfg.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
}

// mergeEnv applies SYNCD_* environment overrides, highest precedence,
// mirroring teacher's merge-env-last-wins ordering.
func (l *Loader) mergeEnv(cfg *Config) {
	logger := log.WithComponent("config")
	lookup := l.lookupEnv

	cfg.DataDir = parseStringWithLookup(logger, lookup, "SYNCD_DATA_DIR", cfg.DataDir)
	cfg.ListenAddr = parseStringWithLookup(logger, lookup, "SYNCD_LISTEN_ADDR", cfg.ListenAddr)
	cfg.MetricsAddr = parseStringWithLookup(logger, lookup, "SYNCD_METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = parseStringWithLookup(logger, lookup, "SYNCD_LOG_LEVEL", cfg.LogLevel)
	cfg.AllowScheduledSyncOverCellular = parseBoolWithLookup(logger, lookup, "SYNCD_ALLOW_CELLULAR", cfg.AllowScheduledSyncOverCellular)
	cfg.ProfileChangeCoalesce = parseDurationWithLookup(logger, lookup, "SYNCD_PROFILE_CHANGE_COALESCE", cfg.ProfileChangeCoalesce)
	cfg.RetryMaxTries = parseIntWithLookup(logger, lookup, "SYNCD_RETRY_MAX_TRIES", cfg.RetryMaxTries)

	cfg.Guard.Backend = GuardBackend(parseStringWithLookup(logger, lookup, "SYNCD_GUARD_BACKEND", string(cfg.Guard.Backend)))
	cfg.Guard.Owner = parseStringWithLookup(logger, lookup, "SYNCD_GUARD_OWNER", cfg.Guard.Owner)
	cfg.Guard.TTL = parseDurationWithLookup(logger, lookup, "SYNCD_GUARD_TTL", cfg.Guard.TTL)
	cfg.Guard.RedisAddr = parseStringWithLookup(logger, lookup, "SYNCD_GUARD_REDIS_ADDR", cfg.Guard.RedisAddr)
	cfg.Guard.RedisKey = parseStringWithLookup(logger, lookup, "SYNCD_GUARD_REDIS_KEY", cfg.Guard.RedisKey)

	cfg.Telemetry.Enabled = parseBoolWithLookup(logger, lookup, "SYNCD_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ServiceName = parseStringWithLookup(logger, lookup, "SYNCD_TELEMETRY_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.Environment = parseStringWithLookup(logger, lookup, "SYNCD_TELEMETRY_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.ExporterType = parseStringWithLookup(logger, lookup, "SYNCD_TELEMETRY_EXPORTER", cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = parseStringWithLookup(logger, lookup, "SYNCD_TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = parseFloatWithLookup(logger, lookup, "SYNCD_TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}
