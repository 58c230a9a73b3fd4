// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockstate follows the hold state of a single named lock through a
// trace. Events for any other lock are ignored.
package lockstate // import "github.com/mtrace-tools/lockinfer/lockstate"

import (
	"errors"
	"fmt"
)

// ErrUnbalanced is returned for a release without a matching acquire.
var ErrUnbalanced = errors.New("lock released more often than acquired")

// Tracker counts nested acquisitions of one lock. The trace is assumed to
// come from a single CPU.
type Tracker struct {
	name  string
	depth int
}

// New returns a Tracker for the lock called name.
func New(name string) *Tracker {
	return &Tracker{name: name}
}

// Name returns the name of the tracked lock.
func (t *Tracker) Name() string {
	return t.name
}

// Handle applies an acquire or release of the lock called name. It reports
// whether the event concerned the tracked lock.
func (t *Tracker) Handle(name string, release bool) (bool, error) {
	if name != t.name {
		return false, nil
	}
	if !release {
		t.depth++
		return true, nil
	}
	if t.depth == 0 {
		return true, fmt.Errorf("%w: %s", ErrUnbalanced, t.name)
	}
	t.depth--
	return true, nil
}

// Held reports whether the lock is currently held.
func (t *Tracker) Held() bool {
	return t.depth > 0
}

// Bit returns 1 while the lock is held and 0 otherwise. It is the index of
// the counter bucket accesses are accounted to.
func (t *Tracker) Bit() int {
	if t.Held() {
		return 1
	}
	return 0
}

// Depth returns the current nesting depth.
func (t *Tracker) Depth() int {
	return t.depth
}
