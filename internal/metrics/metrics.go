// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the sync orchestration daemon.
//
// CTO Constraint: No cardinality explosion (no session_id/correlation_id in labels).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// BusDropsTotal counts in-memory bus message drops by topic (backpressure).
	BusDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_bus_drop_total",
		Help: "Total number of in-memory bus message drops, by topic.",
	}, []string{"topic"})

	// SessionTransitionsTotal counts lifecycle transitions of sync sessions.
	SessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_session_transitions_total",
		Help: "Total number of sync session state transitions, by from/to state.",
	}, []string{"from", "to"})

	// SessionTerminalTotal counts terminal sync session outcomes by reason.
	SessionTerminalTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_session_terminal_total",
		Help: "Total number of terminal sync sessions, by state and reason.",
	}, []string{"state", "reason"})

	// QueueDepth reports the current number of sessions waiting in the queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syncd_queue_depth",
		Help: "Current number of sessions waiting in the session queue.",
	})

	// ActiveSessions reports the current number of running sync sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syncd_active_sessions",
		Help: "Current number of active (reserved-or-running) sync sessions.",
	})

	// BookerContentionTotal counts failed reserve attempts due to storage contention.
	BookerContentionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_booker_contention_total",
		Help: "Total number of StorageBooker reserve attempts that failed due to contention, by storage.",
	}, []string{"storage"})

	// AlarmsArmedTotal counts alarms armed with the wake back-end.
	AlarmsArmedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_alarms_armed_total",
		Help: "Total number of alarms armed, by back-end.",
	}, []string{"backend"})

	// AlarmsFiredTotal counts alarms delivered by the inventory.
	AlarmsFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncd_alarms_fired_total",
		Help: "Total number of alarms delivered by the alarm inventory.",
	})

	// SOCFiresTotal counts sync-on-change debounce timers that fired.
	SOCFiresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncd_soc_fires_total",
		Help: "Total number of sync-on-change debounce timers that fired.",
	})

	// SOCCancelledTotal counts sync-on-change debounce timers cancelled before firing.
	SOCCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncd_soc_cancelled_total",
		Help: "Total number of sync-on-change debounce timers cancelled before firing.",
	})

	// BackupDrainsTotal counts backup/restore drain cycles.
	BackupDrainsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_backup_drains_total",
		Help: "Total number of backup/restore drain cycles, by kind (backup/restore).",
	}, []string{"kind"})

	// ExternalSyncTransitionsTotal counts externally-synced status transitions.
	ExternalSyncTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_external_sync_transitions_total",
		Help: "Total number of externally-synced status transitions emitted, by value.",
	}, []string{"value"})

	// RetryScheduledTotal counts scheduled-sync retries armed after ERROR.
	RetryScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncd_retry_scheduled_total",
		Help: "Total number of retry alarms armed after a scheduled sync ended in ERROR.",
	})

	// InvariantViolationTotal counts critical invariant violations detected at runtime.
	InvariantViolationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncd_invariant_violation_total",
		Help: "Total number of invariant violations, by rule.",
	}, []string{"rule"})
)

// IncBusDrop records a dropped bus message for the given topic.
func IncBusDrop(topic string) {
	if topic == "" {
		topic = "unknown"
	}
	BusDropsTotal.WithLabelValues(topic).Inc()
}

// RecordTransition records a session lifecycle state transition.
func RecordTransition(from, to string) {
	SessionTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordTerminal records a terminal session outcome.
func RecordTerminal(state, reason string) {
	SessionTerminalTotal.WithLabelValues(state, reason).Inc()
}

// RecordInvariantViolation records a named invariant violation.
func RecordInvariantViolation(rule string) {
	InvariantViolationTotal.WithLabelValues(rule).Inc()
}

// GetQueueDepth returns the current value of the QueueDepth gauge (for testing).
func GetQueueDepth() float64 {
	var m dto.Metric
	if err := QueueDepth.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// GetActiveSessions returns the current value of the ActiveSessions gauge (for testing).
func GetActiveSessions() float64 {
	var m dto.Metric
	if err := ActiveSessions.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
