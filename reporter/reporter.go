// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package reporter turns the statistics of a replay into the ranked list
// of fields that are mostly accessed with the tracked lock held.
package reporter // import "github.com/mtrace-tools/lockinfer/reporter"

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/mtrace-tools/lockinfer/libpf"
	"github.com/mtrace-tools/lockinfer/stats"
)

// SymbolResolver renders statistics keys and offsets as field names.
type SymbolResolver interface {
	// Name returns the name of a static variable.
	Name(id libpf.SymbolID) (string, bool)
	// TypeByName looks up a named type.
	TypeByName(name string) (libpf.SymbolID, bool)
	// OffsetName renders a byte offset within a type or variable.
	OffsetName(id libpf.SymbolID, off uint64) (string, bool)
}

// Filter selects the entries of a report.
type Filter struct {
	// MinLockedFrequency is the share of locked accesses an entry needs.
	MinLockedFrequency float64
	// MinSamples is the number of accesses an entry needs.
	MinSamples uint64
	// Baseline names the structure whose entries are always reported.
	Baseline string
}

// Line is one row of the report.
type Line struct {
	Field   string `json:"field"`
	Percent int    `json:"percent"`
	Total   uint64 `json:"total"`
	Locked  uint64 `json:"locked"`
}

// Build sorts, filters and renders entries. Entries are ranked by locked
// frequency, then by number of accesses, both descending.
func Build(entries []stats.Entry, res SymbolResolver, f Filter) []Line {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b stats.Entry) int {
		if c := cmp.Compare(b.Stat.Freq(1), a.Stat.Freq(1)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Stat.Total(), a.Stat.Total()); c != 0 {
			return c
		}
		return a.Compare(&b)
	})

	lines := make([]Line, 0, len(sorted))
	for i := range sorted {
		e := &sorted[i]
		freq := e.Stat.Freq(1)
		if !isBaseline(e.Key, f.Baseline) &&
			(freq < f.MinLockedFrequency || e.Stat.Total() < f.MinSamples) {
			continue
		}
		lines = append(lines, Line{
			Field:   fieldName(e.Key, keyName(e.Key, res), e.Offset, res),
			Percent: int(math.Round(freq * 100)),
			Total:   e.Stat.Total(),
			Locked:  e.Stat.Counts[1],
		})
	}
	return lines
}

// isBaseline reports whether k is a label of the baseline structure. Static
// variables never match, whatever their name.
func isBaseline(k stats.LabelKey, baseline string) bool {
	return k.Kind == stats.KeyName && k.Name == baseline
}

func keyName(k stats.LabelKey, res SymbolResolver) string {
	if k.Kind == stats.KeySymbol {
		if name, ok := res.Name(k.Symbol); ok {
			return name
		}
	}
	return k.String()
}

// fieldName renders off within k, falling back to "name+0xoff" when the
// symbol image has no type information for it.
func fieldName(k stats.LabelKey, name string, off uint64, res SymbolResolver) string {
	id, ok := k.Symbol, k.Kind == stats.KeySymbol
	if !ok {
		id, ok = res.TypeByName(k.Name)
	}
	if ok {
		if field, ok := res.OffsetName(id, off); ok {
			return field
		}
	}
	return fmt.Sprintf("%s+%#x", name, off)
}
