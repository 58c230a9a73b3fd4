// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package symtab

import (
	"debug/dwarf"
	"testing"

	"github.com/stretchr/testify/assert"
)

func basic(name string, size int64) *dwarf.UintType {
	return &dwarf.UintType{BasicType: dwarf.BasicType{
		CommonType: dwarf.CommonType{ByteSize: size, Name: name}}}
}

func structType(name string, size int64, fields ...*dwarf.StructField) *dwarf.StructType {
	return &dwarf.StructType{
		CommonType: dwarf.CommonType{ByteSize: size, Name: name},
		StructName: name,
		Kind:       "struct",
		Field:      fields,
	}
}

// mmStruct mimics:
//
//	struct rw_semaphore { long count; unsigned int wait_lock; };
//	struct mm_struct {
//		unsigned long mmap_base;
//		struct rw_semaphore mmap_sem;
//		unsigned short flags[4];
//		union { unsigned int u32; unsigned long u64; };
//		unsigned char tail;
//	};
func mmStruct() *dwarf.StructType {
	u8, u16, u32, u64 := basic("unsigned char", 1), basic("unsigned short", 2),
		basic("unsigned int", 4), basic("unsigned long", 8)

	sem := structType("rw_semaphore", 16,
		&dwarf.StructField{Name: "count", Type: u64, ByteOffset: 0},
		&dwarf.StructField{Name: "wait_lock", Type: u32, ByteOffset: 8},
	)
	semTypedef := &dwarf.TypedefType{
		CommonType: dwarf.CommonType{Name: "rwsem_t"}, Type: sem}
	anon := &dwarf.StructType{
		CommonType: dwarf.CommonType{ByteSize: 8},
		Kind:       "union",
		Field: []*dwarf.StructField{
			{Name: "u32", Type: u32, ByteOffset: 0},
			{Name: "u64", Type: u64, ByteOffset: 0},
		},
	}
	flags := &dwarf.ArrayType{Type: u16, Count: 4}

	return structType("mm_struct", 56,
		&dwarf.StructField{Name: "mmap_base", Type: u64, ByteOffset: 0},
		&dwarf.StructField{Name: "mmap_sem", Type: semTypedef, ByteOffset: 8},
		&dwarf.StructField{Name: "flags", Type: flags, ByteOffset: 24},
		&dwarf.StructField{Type: anon, ByteOffset: 32},
		&dwarf.StructField{Name: "tail", Type: u8, ByteOffset: 40},
	)
}

func TestOffsetPath(t *testing.T) {
	mm := mmStruct()

	tests := map[string]struct {
		off      uint64
		expected string
		ok       bool
	}{
		"first field":            {off: 0, expected: "mm_struct.mmap_base", ok: true},
		"inside scalar":          {off: 3, expected: "mm_struct.mmap_base+0x3", ok: true},
		"nested through typedef": {off: 8, expected: "mm_struct.mmap_sem.count", ok: true},
		"nested second field":    {off: 17, expected: "mm_struct.mmap_sem.wait_lock+0x1", ok: true},
		"nested padding":         {off: 22, expected: "mm_struct.mmap_sem+0xe", ok: true},
		"array element":          {off: 28, expected: "mm_struct.flags[2]", ok: true},
		"array element interior": {off: 31, expected: "mm_struct.flags[3]+0x1", ok: true},
		"anonymous union":        {off: 32, expected: "mm_struct.u32", ok: true},
		"union wider member":     {off: 36, expected: "mm_struct.u64+0x4", ok: true},
		"tail":                   {off: 40, expected: "mm_struct.tail", ok: true},
		"trailing padding":       {off: 48, expected: "mm_struct+0x30", ok: true},
		"outside":                {off: 56},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := offsetPath("mm_struct", mm, test.off)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestTypeName(t *testing.T) {
	mm := mmStruct()
	assert.Equal(t, "mm_struct", typeName(mm))
	assert.Equal(t, "rwsem_t", typeName(mm.Field[1].Type))
	assert.Equal(t, "unsigned int", typeName(basic("unsigned int", 4)))
}
