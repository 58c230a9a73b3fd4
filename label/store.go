// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package label tracks the named memory regions that are live at a given
// point of a trace, and answers which region contains an address.
package label // import "github.com/mtrace-tools/lockinfer/label"

import (
	"errors"
	"fmt"

	"github.com/google/btree"
	log "github.com/sirupsen/logrus"

	"github.com/mtrace-tools/lockinfer/libpf"
)

// DefaultMaxRemovalMisses is the number of removals of unknown labels that
// are tolerated before the trace is considered corrupt.
const DefaultMaxRemovalMisses = 200

// maxMissWarnings limits how many tolerated misses are logged individually.
const maxMissWarnings = 5

// treeDegree is the B-tree degree of the per-category index.
const treeDegree = 32

var (
	// ErrInconsistent is returned when the label events contradict the
	// current state of the Store.
	ErrInconsistent = errors.New("inconsistent label state")

	// ErrTooManyMisses is returned once the removal miss tolerance is exceeded.
	ErrTooManyMisses = fmt.Errorf("suspicious number of label removal misses: %w",
		ErrInconsistent)
)

// Label is a named memory region.
type Label struct {
	Category Category
	Base     libpf.Address
	Size     uint64
	Name     string

	// Global is set for labels seeded from the symbol image. Their statistics
	// are keyed by Symbol rather than by Name.
	Global bool
	// Symbol is the debug-info entry of the static variable backing a Global
	// label.
	Symbol libpf.SymbolID
}

// End returns the first address past the label.
func (l *Label) End() libpf.Address {
	return l.Base + libpf.Address(l.Size)
}

// Contains reports whether addr falls inside the label.
func (l *Label) Contains(addr libpf.Address) bool {
	return addr >= l.Base && addr < l.End()
}

func (l *Label) String() string {
	return fmt.Sprintf("%s %s [%#x, %#x)", l.Category, l.Name, uint64(l.Base), uint64(l.End()))
}

// Store is the per-category table of live labels. Within a category, labels
// are kept in a B-tree ordered by base address so that the label containing
// an address is the predecessor of that address, and labels are created and
// destroyed in logarithmic time.
//
// The Store is not safe for concurrent use.
type Store struct {
	tables [End]*btree.BTreeG[Label]

	maxMisses int
	misses    int
}

func lessBase(a, b Label) bool {
	return a.Base < b.Base
}

// NewStore returns an empty Store that tolerates up to maxMisses removals
// of labels that are not live.
func NewStore(maxMisses int) *Store {
	s := &Store{maxMisses: maxMisses}
	for c := Heap; c < End; c++ {
		s.tables[c] = btree.NewG(treeDegree, lessBase)
	}
	return s
}

func (s *Store) table(c Category) (*btree.BTreeG[Label], error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: invalid label category %d", ErrInconsistent, uint8(c))
	}
	return s.tables[c], nil
}

// Insert adds l to the Store. It fails if a live label of the same category
// already starts at l.Base.
func (s *Store) Insert(l Label) error {
	t, err := s.table(l.Category)
	if err != nil {
		return err
	}
	if old, ok := t.Get(l); ok {
		return fmt.Errorf("%w: %s label %q already live at %#x (inserting %q)",
			ErrInconsistent, l.Category, old.Name, uint64(l.Base), l.Name)
	}
	t.ReplaceOrInsert(l)
	return nil
}

// Remove deletes the label of category c starting at addr. Removing a label
// that is not live counts as a miss; misses are tolerated until more than
// the configured maximum have been seen.
func (s *Store) Remove(c Category, addr libpf.Address) error {
	t, err := s.table(c)
	if err != nil {
		return err
	}
	if _, ok := t.Delete(Label{Base: addr}); ok {
		return nil
	}

	s.misses++
	if s.misses > s.maxMisses {
		return fmt.Errorf("%w (%d, last %s at %#x)",
			ErrTooManyMisses, s.misses, c, uint64(addr))
	}
	if s.misses <= maxMissWarnings {
		log.Warnf("Removal of unknown %s label at %#x ignored", c, uint64(addr))
	}
	return nil
}

// FindContaining returns the label of category c that contains addr: the
// label with the largest base <= addr, if addr lies within its span.
func (s *Store) FindContaining(c Category, addr libpf.Address) (*Label, bool) {
	if !c.Valid() {
		return nil, false
	}
	var found Label
	ok := false
	s.tables[c].DescendLessOrEqual(Label{Base: addr}, func(l Label) bool {
		found, ok = l, true
		return false
	})
	if !ok || !found.Contains(addr) {
		return nil, false
	}
	return &found, true
}

// Len returns the number of live labels of category c.
func (s *Store) Len(c Category) int {
	if !c.Valid() {
		return 0
	}
	return s.tables[c].Len()
}

// Misses returns the number of removals that did not match a live label.
func (s *Store) Misses() int {
	return s.misses
}
