// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// nopanicslicereader provides little convenience utilities to read little
// endian values from a slice at given offset. Zeroes are returned on out of
// bounds access instead of panic.
package nopanicslicereader // import "github.com/mtrace-tools/lockinfer/nopanicslicereader"

import (
	"bytes"
	"encoding/binary"

	"github.com/mtrace-tools/lockinfer/libpf"
)

// Uint8 reads one 8-bit unsigned integer from given byte slice offset
func Uint8(b []byte, offs uint) uint8 {
	if offs+1 > uint(len(b)) {
		return 0
	}
	return b[offs]
}

// Bool reads one byte from given byte slice offset and reports if it is set
func Bool(b []byte, offs uint) bool {
	return Uint8(b, offs) != 0
}

// Uint16 reads one 16-bit unsigned integer from given byte slice offset
func Uint16(b []byte, offs uint) uint16 {
	if offs+2 > uint(len(b)) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[offs:])
}

// Uint32 reads one 32-bit unsigned integer from given byte slice offset
func Uint32(b []byte, offs uint) uint32 {
	if offs+4 > uint(len(b)) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[offs:])
}

// Uint64 reads one 64-bit unsigned integer from given byte slice offset
func Uint64(b []byte, offs uint) uint64 {
	if offs+8 > uint(len(b)) {
		return 0
	}
	return binary.LittleEndian.Uint64(b[offs:])
}

// Ptr reads one 64-bit guest address from given byte slice offset
func Ptr(b []byte, offs uint) libpf.Address {
	return libpf.Address(Uint64(b, offs))
}

// CString reads a NUL terminated string from a fixed size field of n bytes
// at given offset. A field without terminator yields all of its n bytes,
// a field beyond the slice yields the part that is present.
func CString(b []byte, offs, n uint) string {
	if offs >= uint(len(b)) {
		return ""
	}
	b = b[offs:min(offs+n, uint(len(b)))]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
