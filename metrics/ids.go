// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package metrics // import "github.com/mtrace-tools/lockinfer/metrics"

const (
	IDInvalid MetricID = iota

	// Number of trace records replayed
	IDReplayEntries
	// Number of memory accesses replayed
	IDReplayAccesses
	// Number of memory accesses outside of every live label
	IDReplayUnresolved
	// Number of label records replayed
	IDReplayLabels
	// Number of label removals that matched no live label
	IDReplayRemovalMisses
	// Number of acquire and release records of the tracked lock
	IDReplayLockEvents
	// Number of records of kinds the replay does not handle
	IDReplaySkipped
	// Number of static variables seeded from the symbol image
	IDStaticLabels

	// IDMax is the upper bound of the valid IDs.
	IDMax
)

var definitions = []MetricDefinition{
	{IDReplayEntries, "lockinfer.replay.entries",
		"Number of trace records replayed", "{record}"},
	{IDReplayAccesses, "lockinfer.replay.accesses",
		"Number of memory accesses replayed", "{access}"},
	{IDReplayUnresolved, "lockinfer.replay.unresolved",
		"Number of memory accesses outside of every live label", "{access}"},
	{IDReplayLabels, "lockinfer.replay.labels",
		"Number of label records replayed", "{record}"},
	{IDReplayRemovalMisses, "lockinfer.replay.removal_misses",
		"Number of label removals that matched no live label", "{record}"},
	{IDReplayLockEvents, "lockinfer.replay.lock_events",
		"Number of acquire and release records of the tracked lock", "{record}"},
	{IDReplaySkipped, "lockinfer.replay.skipped",
		"Number of records of kinds the replay does not handle", "{record}"},
	{IDStaticLabels, "lockinfer.static_labels",
		"Number of static variables seeded from the symbol image", "{label}"},
}

// GetDefinitions returns the metric definitions.
func GetDefinitions() []MetricDefinition {
	return definitions
}
