// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package tracehandler // import "github.com/mtrace-tools/lockinfer/tracehandler"

import (
	"github.com/mtrace-tools/lockinfer/label"
	"github.com/mtrace-tools/lockinfer/libpf"
	"github.com/mtrace-tools/lockinfer/stats"
)

// Resolver maps access addresses to the label identity and offset they
// fall into.
type Resolver struct {
	store *label.Store
}

// NewResolver returns a Resolver looking up labels in store.
func NewResolver(store *label.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the statistics key and byte offset of addr. Categories
// are consulted in label.ResolveOrder and the first containing label wins.
func (r *Resolver) Resolve(addr libpf.Address) (key stats.LabelKey, offset uint64, ok bool) {
	for _, c := range label.ResolveOrder {
		l, found := r.store.FindContaining(c, addr)
		if !found {
			continue
		}
		return KeyOf(l), uint64(addr - l.Base), true
	}
	return stats.LabelKey{}, 0, false
}

// KeyOf returns the statistics identity of l: the backing variable for
// labels seeded from the symbol image, the label name otherwise.
func KeyOf(l *label.Label) stats.LabelKey {
	if l.Global {
		return stats.SymbolKey(l.Symbol)
	}
	return stats.NameKey(l.Name)
}
