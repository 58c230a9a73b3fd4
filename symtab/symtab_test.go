// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package symtab

import (
	"debug/elf"
	"os"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrace-tools/lockinfer/libpf"
)

type testPair struct {
	A uint32
	B [4]uint16
	C *int
}

var testGlobal = testPair{A: 1}

// openSelf opens the DWARF of the running test binary.
func openSelf(t *testing.T) *Image {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	im, err := Open(exe)
	if err != nil {
		t.Skipf("test binary has no usable DWARF: %v", err)
	}
	t.Cleanup(func() { _ = im.Close() })
	return im
}

func findVariable(t *testing.T, im *Image, suffix string) libpf.Variable {
	t.Helper()
	vars, err := im.Variables()
	require.NoError(t, err)
	for _, v := range vars {
		if strings.HasSuffix(v.Name, suffix) {
			return v
		}
	}
	t.Skipf("variable %s not present in debug info", suffix)
	return libpf.Variable{}
}

func TestImageVariables(t *testing.T) {
	im := openSelf(t)
	v := findVariable(t, im, ".testGlobal")

	assert.Equal(t, uint32(1), testGlobal.A)
	assert.Equal(t, uint64(unsafe.Sizeof(testGlobal)), v.Size)

	// The DWARF location agrees with the ELF symbol table.
	exe, err := os.Executable()
	require.NoError(t, err)
	ef, err := elf.Open(exe)
	require.NoError(t, err)
	defer ef.Close()
	syms, err := ef.Symbols()
	require.NoError(t, err)
	for _, sym := range syms {
		if sym.Name == v.Name {
			assert.Equal(t, libpf.Address(sym.Value), v.Addr)
		}
	}

	name, ok := im.Name(v.ID)
	require.True(t, ok)
	assert.Equal(t, v.Name, name)

	size, ok := im.TypeSize(v.ID)
	require.True(t, ok)
	assert.Equal(t, int64(v.Size), size)
}

func TestImageOffsetName(t *testing.T) {
	im := openSelf(t)
	v := findVariable(t, im, ".testGlobal")

	tests := map[string]struct {
		off      uint64
		expected string
	}{
		"first field":   {off: 0, expected: v.Name + ".A"},
		"array element": {off: uint64(unsafe.Offsetof(testGlobal.B)) + 2, expected: v.Name + ".B[1]"},
		"pointer byte":  {off: uint64(unsafe.Offsetof(testGlobal.C)) + 1, expected: v.Name + ".C+0x1"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := im.OffsetName(v.ID, test.off)
			require.True(t, ok)
			assert.Equal(t, test.expected, got)

			// Served from the cache the second time.
			again, ok := im.OffsetName(v.ID, test.off)
			require.True(t, ok)
			assert.Equal(t, got, again)
		})
	}

	_, ok := im.OffsetName(v.ID, v.Size)
	assert.False(t, ok)
}

func TestImageTypeByName(t *testing.T) {
	im := openSelf(t)
	v := findVariable(t, im, ".testGlobal")
	typeName := strings.TrimSuffix(v.Name, "testGlobal") + "testPair"

	id, ok := im.TypeByName(typeName)
	if !ok {
		t.Skipf("type %s not present in debug info", typeName)
	}
	got, ok := im.OffsetName(id, 0)
	require.True(t, ok)
	assert.Equal(t, typeName+".A", got)

	_, ok = im.TypeByName("no such type")
	assert.False(t, ok)
}

func TestOpenWithoutDWARF(t *testing.T) {
	_, err := NewFromDWARF(nil)
	require.ErrorIs(t, err, ErrNoDWARF)

	_, err = Open("/nonexistent/vmlinux")
	require.Error(t, err)

	notELF := t.TempDir() + "/notelf"
	require.NoError(t, os.WriteFile(notELF, []byte("plain text"), 0o600))
	_, err = Open(notELF)
	var formatErr *elf.FormatError
	require.ErrorAs(t, err, &formatErr)
}
