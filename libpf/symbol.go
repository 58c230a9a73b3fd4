// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf // import "github.com/mtrace-tools/lockinfer/libpf"

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// SymbolID identifies a debug-info entry of the symbol image: a type or a
// static variable. The zero value is never a valid entry.
type SymbolID uint64

// Hash32 returns a 32 bits hash of the input for use as LRU key.
func (id SymbolID) Hash32() uint32 {
	return Address(id).Hash32()
}

// Variable is a statically allocated variable of the traced kernel image.
type Variable struct {
	// ID is the debug-info entry of the variable itself, not of its type.
	ID   SymbolID
	Name string
	Addr Address
	// Size is the byte size of the variable's declared type.
	Size uint64
	// Type is the debug-info entry of the declared type.
	Type SymbolID
}

// SymbolOffset is a byte offset within a symbol, used as cache key.
type SymbolOffset struct {
	ID     SymbolID
	Offset uint64
}

// Hash32 returns a 32 bits hash of the input for use as LRU key.
func (so SymbolOffset) Hash32() uint32 {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(so.ID))
	binary.LittleEndian.PutUint64(b[8:], so.Offset)
	return uint32(xxh3.Hash(b[:]))
}
