// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package tracehandler // import "github.com/mtrace-tools/lockinfer/tracehandler"

import "github.com/mtrace-tools/lockinfer/metrics"

func (h *Handler) collectMetrics(s Summary) {
	metrics.AddSlice([]metrics.Metric{
		{
			ID:    metrics.IDReplayEntries,
			Value: metrics.MetricValue(s.Entries),
		},
		{
			ID:    metrics.IDReplayAccesses,
			Value: metrics.MetricValue(s.Accesses),
		},
		{
			ID:    metrics.IDReplayUnresolved,
			Value: metrics.MetricValue(s.Unresolved),
		},
		{
			ID:    metrics.IDReplayLabels,
			Value: metrics.MetricValue(s.Labels),
		},
		{
			ID:    metrics.IDReplayRemovalMisses,
			Value: metrics.MetricValue(s.RemovalMisses),
		},
		{
			ID:    metrics.IDReplayLockEvents,
			Value: metrics.MetricValue(s.LockEvents),
		},
		{
			ID:    metrics.IDReplaySkipped,
			Value: metrics.MetricValue(s.Skipped),
		},
	})
}
