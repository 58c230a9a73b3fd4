// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package libpf holds small types shared by the trace replay packages.
package libpf // import "github.com/mtrace-tools/lockinfer/libpf"

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Address is a guest (traced kernel) virtual address. It is always 64 bits
// wide, independent of the architecture lockinfer itself runs on.
type Address uint64

// Hash32 returns a 32 bits hash of the input.
// It's main purpose is to be used as key for caching.
func (a Address) Hash32() uint32 {
	return uint32(a.Hash())
}

// Hash returns a 64 bits hash of the input.
func (a Address) Hash() uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(a))
	return xxh3.Hash(b[:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}
