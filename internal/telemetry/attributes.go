// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities for the daemon.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Sync attributes
	ProfileNameKey       = "sync.profile"
	ClientProfileKey     = "sync.client_profile"
	StorageNameKey       = "sync.storage"
	DestinationTypeKey   = "sync.destination_type"
	ReasonCodeKey        = "sync.reason_code"
	SyncTypeKey          = "sync.type"

	// Job attributes
	JobTypeKey     = "job.type"
	JobStatusKey   = "job.status"
	JobDurationKey = "job.duration_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SessionAttributes creates span attributes describing a sync session.
func SessionAttributes(profile, clientProfile, destinationType, syncType string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if profile != "" {
		attrs = append(attrs, attribute.String(ProfileNameKey, profile))
	}
	if clientProfile != "" {
		attrs = append(attrs, attribute.String(ClientProfileKey, clientProfile))
	}
	if destinationType != "" {
		attrs = append(attrs, attribute.String(DestinationTypeKey, destinationType))
	}
	if syncType != "" {
		attrs = append(attrs, attribute.String(SyncTypeKey, syncType))
	}
	return attrs
}

// StorageAttributes creates span attributes describing a storage reservation.
func StorageAttributes(storages []string, owner string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.StringSlice(StorageNameKey, storages),
		attribute.String("sync.owner", owner),
	}
}

// JobAttributes creates job-related span attributes.
func JobAttributes(jobType, status string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobTypeKey, jobType),
		attribute.String(JobStatusKey, status),
		attribute.Int64(JobDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// ReasonAttribute creates a single span attribute for a failure reason code.
func ReasonAttribute(reason string) attribute.KeyValue {
	return attribute.String(ReasonCodeKey, reason)
}
