// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exports the counters of a lock inference run as
// OpenTelemetry metrics. Without an installed meter provider the exported
// counters are no-ops; the totals remain available through Totals.
package metrics // import "github.com/mtrace-tools/lockinfer/metrics"

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/mtrace-tools/lockinfer/vc"
)

var (
	// mutex serializes the concurrent calls to AddSlice()
	mutex sync.Mutex

	totals = make(Summary)

	counters = map[MetricID]metric.Int64Counter{}
)

func init() {
	meter := otel.Meter("github.com/mtrace-tools/lockinfer",
		metric.WithInstrumentationVersion(vc.Version()))
	for _, md := range GetDefinitions() {
		counter, err := meter.Int64Counter(md.Name,
			metric.WithDescription(md.Description),
			metric.WithUnit(md.Unit))
		if err != nil {
			log.Errorf("Creating Int64Counter: %v", err)
			continue
		}
		counters[md.ID] = counter
	}
}

// AddSlice adds a slice of counter increments.
func AddSlice(newMetrics []Metric) {
	ctx := context.Background()

	mutex.Lock()
	defer mutex.Unlock()

	for _, m := range newMetrics {
		if m.ID <= IDInvalid || m.ID >= IDMax {
			log.Errorf("Metric value %d out of range [%d,%d]- needs investigation",
				m.ID, IDInvalid+1, IDMax-1)
			continue
		}
		if m.Value == 0 {
			continue
		}
		totals[m.ID] += m.Value
		if counter, ok := counters[m.ID]; ok {
			counter.Add(ctx, int64(m.Value))
		}
	}
}

// Add adds a single counter increment.
func Add(id MetricID, value MetricValue) {
	AddSlice([]Metric{{ID: id, Value: value}})
}

// Totals returns a copy of the accumulated values of all counters.
func Totals() Summary {
	mutex.Lock()
	defer mutex.Unlock()

	s := make(Summary, len(totals))
	for id, v := range totals {
		s[id] = v
	}
	return s
}

// reset clears the accumulated values. Only used by tests.
func reset() {
	mutex.Lock()
	defer mutex.Unlock()
	clear(totals)
}
