// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracehandler replays a decoded mtrace log: it maintains the live
// labels and the state of the tracked lock, and accounts every memory
// access to the label offset it touched.
package tracehandler // import "github.com/mtrace-tools/lockinfer/tracehandler"

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/mtrace-tools/lockinfer/label"
	"github.com/mtrace-tools/lockinfer/lockstate"
	"github.com/mtrace-tools/lockinfer/mtrace"
	"github.com/mtrace-tools/lockinfer/stats"
)

// cancelCheckInterval is the number of entries replayed between checks of
// the context.
const cancelCheckInterval = 1 << 16

// EntrySource produces the records of a log in order. Next returns io.EOF
// after the last record.
type EntrySource interface {
	Next(e *mtrace.Entry) error
}

// Compile time check to make sure mtrace.Reader satisfies the interface.
var _ EntrySource = (*mtrace.Reader)(nil)

// Summary counts what a replay has seen.
type Summary struct {
	Entries       uint64
	Accesses      uint64
	Unresolved    uint64
	Labels        uint64
	Removes       uint64
	RemovalMisses uint64
	LockEvents    uint64
	Skipped       uint64
}

// Handler dispatches trace records to the label store, the lock tracker and
// the statistics aggregator. It holds no replay state of its own beyond the
// counters of its Summary.
type Handler struct {
	store    *label.Store
	tracker  *lockstate.Tracker
	agg      *stats.Aggregator
	resolver *Resolver

	summary Summary
}

// New returns a Handler operating on the given state.
func New(store *label.Store, tracker *lockstate.Tracker, agg *stats.Aggregator) *Handler {
	return &Handler{
		store:    store,
		tracker:  tracker,
		agg:      agg,
		resolver: NewResolver(store),
	}
}

// Summary returns the counters of the records handled so far.
func (h *Handler) Summary() Summary {
	s := h.summary
	s.Unresolved = h.agg.Unresolved()
	s.RemovalMisses = uint64(h.store.Misses())
	return s
}

// HandleEvent applies one record. Errors are fatal for the replay.
func (h *Handler) HandleEvent(e *mtrace.Entry) error {
	h.summary.Entries++
	switch e.Kind {
	case mtrace.KindLabel:
		return h.handleLabel(&e.Label)
	case mtrace.KindAccess:
		h.handleAccess(&e.Access)
		return nil
	case mtrace.KindLock:
		return h.handleLock(&e.Lock)
	default:
		h.summary.Skipped++
		return nil
	}
}

func (h *Handler) handleLabel(l *mtrace.LabelEntry) error {
	h.summary.Labels++
	c := label.Category(l.LabelType)
	if l.Bytes == 0 {
		h.summary.Removes++
		return h.store.Remove(c, l.GuestAddr)
	}
	return h.store.Insert(label.Label{
		Category: c,
		Base:     l.GuestAddr,
		Size:     l.Bytes,
		Name:     l.Str,
	})
}

func (h *Handler) handleAccess(a *mtrace.AccessEntry) {
	h.summary.Accesses++
	key, offset, ok := h.resolver.Resolve(a.GuestAddr)
	if !ok {
		h.agg.RecordUnresolved()
		return
	}
	h.agg.Record(key, offset, h.tracker.Bit())
}

func (h *Handler) handleLock(l *mtrace.LockEntry) error {
	relevant, err := h.tracker.Handle(l.Str, l.Release)
	if !relevant {
		return nil
	}
	h.summary.LockEvents++
	if err == nil && log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("%s %s at %#x, depth %d", l.Str, lockOp(l), uint64(l.PC),
			h.tracker.Depth())
	}
	return err
}

func lockOp(l *mtrace.LockEntry) string {
	switch {
	case l.Release:
		return "released"
	case l.Read:
		return "read-acquired"
	default:
		return "acquired"
	}
}

// Replay handles all records of src in order until it is exhausted. It
// stops at the first error of src or of a record, and when ctx is done.
func (h *Handler) Replay(ctx context.Context, src EntrySource) (Summary, error) {
	var e mtrace.Entry
	for n := uint64(0); ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return h.Summary(), err
			}
		}

		err := src.Next(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return h.Summary(), fmt.Errorf("failed to read entry %d: %w", n, err)
		}
		if err = h.HandleEvent(&e); err != nil {
			return h.Summary(), fmt.Errorf("entry %d (%s): %w", n, e.Kind, err)
		}
	}

	s := h.Summary()
	log.Debugf("Replayed %d entries: %d accesses (%d unresolved), %d label records, "+
		"%d lock events, %d skipped", s.Entries, s.Accesses, s.Unresolved, s.Labels,
		s.LockEvents, s.Skipped)
	h.collectMetrics(s)
	return s, nil
}
