// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefinitionsCoverAllIDs(t *testing.T) {
	seen := make(map[MetricID]string)
	for _, md := range GetDefinitions() {
		assert.Greater(t, md.ID, IDInvalid)
		assert.Less(t, md.ID, IDMax)
		assert.NotContains(t, seen, md.ID, "duplicate definition of %s", md.Name)
		seen[md.ID] = md.Name
	}
	assert.Len(t, seen, int(IDMax-1))
	assert.Len(t, counters, int(IDMax-1))
}

func TestAddSlice(t *testing.T) {
	reset()
	t.Cleanup(reset)

	AddSlice([]Metric{
		{ID: IDReplayEntries, Value: 10},
		{ID: IDReplayUnresolved, Value: 2},
		{ID: IDReplaySkipped, Value: 0},
		{ID: IDInvalid, Value: 5},
		{ID: IDMax, Value: 5},
	})
	Add(IDReplayEntries, 5)

	assert.Equal(t, Summary{
		IDReplayEntries:    15,
		IDReplayUnresolved: 2,
	}, Totals())
}
