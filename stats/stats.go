// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package stats accumulates, per label identity and byte offset, how often
// an offset was accessed with the tracked lock held and not held.
package stats // import "github.com/mtrace-tools/lockinfer/stats"

import (
	"cmp"
	"fmt"
	"math"

	"github.com/mtrace-tools/lockinfer/libpf"
)

// KeyKind discriminates the two kinds of LabelKey.
type KeyKind uint8

const (
	// KeySymbol keys statistics by a static variable of the symbol image.
	KeySymbol KeyKind = iota
	// KeyName keys statistics by the label name, e.g. a slab cache name.
	KeyName
)

// LabelKey is the identity statistics are grouped by. Two keys of different
// kinds are never equal, even if they would render to the same name.
type LabelKey struct {
	Kind   KeyKind
	Symbol libpf.SymbolID
	Name   string
}

// SymbolKey returns the key of a static variable.
func SymbolKey(id libpf.SymbolID) LabelKey {
	return LabelKey{Kind: KeySymbol, Symbol: id}
}

// NameKey returns the key of a named label.
func NameKey(name string) LabelKey {
	return LabelKey{Kind: KeyName, Name: name}
}

// Compare orders keys by kind, then by symbol or name.
func (k LabelKey) Compare(o LabelKey) int {
	if c := cmp.Compare(k.Kind, o.Kind); c != 0 {
		return c
	}
	if k.Kind == KeySymbol {
		return cmp.Compare(k.Symbol, o.Symbol)
	}
	return cmp.Compare(k.Name, o.Name)
}

func (k LabelKey) String() string {
	if k.Kind == KeySymbol {
		return fmt.Sprintf("sym#%d", uint64(k.Symbol))
	}
	return k.Name
}

// OffsetStat holds the access counters of one offset, indexed by lock bit.
type OffsetStat struct {
	Counts [2]uint64
}

// Total returns the number of accesses in both buckets.
func (s OffsetStat) Total() uint64 {
	return s.Counts[0] + s.Counts[1]
}

// Freq returns the fraction of accesses recorded with the given lock bit.
// It is NaN for a stat without accesses.
func (s OffsetStat) Freq(bit int) float64 {
	total := s.Total()
	if total == 0 {
		return math.NaN()
	}
	return float64(s.Counts[bit]) / float64(total)
}

type offsetKey struct {
	key    LabelKey
	offset uint64
}

// Entry is one (key, offset) statistic.
type Entry struct {
	Key    LabelKey
	Offset uint64
	Stat   OffsetStat
}

// Compare orders entries by key, then offset.
func (e *Entry) Compare(o *Entry) int {
	if c := e.Key.Compare(o.Key); c != 0 {
		return c
	}
	return cmp.Compare(e.Offset, o.Offset)
}

// Aggregator owns all statistics of a replay. Statistics are created on
// their first access and outlive the labels they were derived from.
type Aggregator struct {
	stats map[offsetKey]*OffsetStat

	accesses   uint64
	unresolved uint64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{stats: make(map[offsetKey]*OffsetStat)}
}

// Record accounts one access at offset within key to the bucket bit.
func (a *Aggregator) Record(key LabelKey, offset uint64, bit int) {
	a.accesses++
	k := offsetKey{key: key, offset: offset}
	s, ok := a.stats[k]
	if !ok {
		s = &OffsetStat{}
		a.stats[k] = s
	}
	s.Counts[bit]++
}

// RecordUnresolved accounts one access that matched no label.
func (a *Aggregator) RecordUnresolved() {
	a.accesses++
	a.unresolved++
}

// Get returns the statistic of key and offset, if any access was recorded.
func (a *Aggregator) Get(key LabelKey, offset uint64) (OffsetStat, bool) {
	s, ok := a.stats[offsetKey{key: key, offset: offset}]
	if !ok {
		return OffsetStat{}, false
	}
	return *s, true
}

// Accesses returns the number of accesses seen, resolved or not.
func (a *Aggregator) Accesses() uint64 {
	return a.accesses
}

// Unresolved returns the number of accesses that matched no label.
func (a *Aggregator) Unresolved() uint64 {
	return a.unresolved
}

// Len returns the number of (key, offset) statistics.
func (a *Aggregator) Len() int {
	return len(a.stats)
}

// Sum returns the sum of all counters. It equals Accesses() - Unresolved().
func (a *Aggregator) Sum() uint64 {
	var sum uint64
	for _, s := range a.stats {
		sum += s.Total()
	}
	return sum
}

// Entries returns a copy of all statistics in unspecified order.
func (a *Aggregator) Entries() []Entry {
	entries := make([]Entry, 0, len(a.stats))
	for k, s := range a.stats {
		entries = append(entries, Entry{Key: k.key, Offset: k.offset, Stat: *s})
	}
	return entries
}
