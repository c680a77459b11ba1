// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type envLookupFunc func(string) (string, bool)

// parseStringWithLookup reads a string env var, logging its source for
// observability, mirroring teacher's parseStringWithLogger.
func parseStringWithLookup(logger zerolog.Logger, lookup envLookupFunc, key, defaultValue string) string {
	if value, ok := lookup(key); ok && value != "" {
		logger.Debug().Str("key", key).Str("source", "environment").Msg("using environment variable")
		return value
	}
	logger.Debug().Str("key", key).Str("default", defaultValue).Str("source", "default").Msg("using default value")
	return defaultValue
}

func parseBoolWithLookup(logger zerolog.Logger, lookup envLookupFunc, key string, defaultValue bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			logger.Debug().Str("key", key).Bool("value", b).Str("source", "environment").Msg("using environment variable")
			return b
		}
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid boolean in environment variable, using default")
	}
	return defaultValue
}

func parseIntWithLookup(logger zerolog.Logger, lookup envLookupFunc, key string, defaultValue int) int {
	if v, ok := lookup(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
			return i
		}
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

func parseDurationWithLookup(logger zerolog.Logger, lookup envLookupFunc, key string, defaultValue time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			logger.Debug().Str("key", key).Dur("value", d).Str("source", "environment").Msg("using environment variable")
			return d
		}
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}

func parseFloatWithLookup(logger zerolog.Logger, lookup envLookupFunc, key string, defaultValue float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			logger.Debug().Str("key", key).Float64("value", f).Str("source", "environment").Msg("using environment variable")
			return f
		}
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid float in environment variable, using default")
	}
	return defaultValue
}

// defaultLookup wraps os.LookupEnv for production use; tests inject a fake.
func defaultLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}
