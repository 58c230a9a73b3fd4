// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package symtab // import "github.com/mtrace-tools/lockinfer/symtab"

import (
	"debug/dwarf"
	"fmt"
	"strings"
)

// typeName returns the bare name of typ, without "struct " and similar
// prefixes where DWARF provides one.
func typeName(typ dwarf.Type) string {
	switch t := typ.(type) {
	case *dwarf.StructType:
		if t.StructName != "" {
			return t.StructName
		}
	case *dwarf.TypedefType:
		return t.Name
	}
	return typ.String()
}

// offsetPath renders the path from root to byte offset off within a value
// of type typ. Struct fields are followed to the one containing off, array
// elements are indexed, and a remaining offset inside a leaf is appended as
// "+0x..". It returns false if off is outside of typ.
func offsetPath(root string, typ dwarf.Type, off uint64) (string, bool) {
	if typ == nil || off >= uint64(max(typ.Size(), 0)) {
		return "", false
	}

	var b strings.Builder
	b.WriteString(root)
loop:
	for {
		switch t := typ.(type) {
		case *dwarf.QualType:
			typ = t.Type
		case *dwarf.TypedefType:
			typ = t.Type

		case *dwarf.ArrayType:
			eltSize := t.Type.Size()
			if eltSize <= 0 {
				break loop
			}
			index := off / uint64(eltSize)
			off -= index * uint64(eltSize)
			fmt.Fprintf(&b, "[%d]", index)
			typ = t.Type

		case *dwarf.StructType:
			// The innermost field covering off; for unions the first member
			// large enough.
			var best *dwarf.StructField
			for _, field := range t.Field {
				start := uint64(field.ByteOffset)
				if start > off {
					continue
				}
				if size := field.Type.Size(); size >= 0 && off-start >= uint64(size) {
					continue
				}
				if best == nil || field.ByteOffset > best.ByteOffset {
					best = field
				}
			}
			if best == nil {
				// Padding.
				break loop
			}
			if best.Name != "" {
				b.WriteByte('.')
				b.WriteString(best.Name)
			}
			off -= uint64(best.ByteOffset)
			typ = best.Type

		default:
			break loop
		}
	}
	if off != 0 {
		fmt.Fprintf(&b, "+%#x", off)
	}
	return b.String(), true
}
