// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func getCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestGetQueueDepthAndActiveSessions(t *testing.T) {
	QueueDepth.Set(3)
	require.Equal(t, 3.0, GetQueueDepth())

	ActiveSessions.Set(2)
	require.Equal(t, 2.0, GetActiveSessions())
}

func TestRecordHelpersIncrementCounters(t *testing.T) {
	before := getCounterValue(t, AlarmsFiredTotal)
	AlarmsFiredTotal.Inc()
	require.Equal(t, before+1, getCounterValue(t, AlarmsFiredTotal))

	RecordTransition("RESERVED", "RUNNING")
	RecordTerminal("SUCCESS", "none")
	RecordInvariantViolation("single-writer")
	IncBusDrop("")

	require.Equal(t, 1.0, getCounterValue(t, BusDropsTotal.WithLabelValues("unknown")))
}
