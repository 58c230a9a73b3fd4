// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package label

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrace-tools/lockinfer/libpf"
)

type fakeVariables struct {
	vars []libpf.Variable
	err  error
}

func (f fakeVariables) Variables() ([]libpf.Variable, error) {
	return f.vars, f.err
}

func TestLoadStatic(t *testing.T) {
	s := NewStore(DefaultMaxRemovalMisses)
	n, err := LoadStatic(s, fakeVariables{vars: []libpf.Variable{
		{ID: 10, Name: "X", Addr: 0x1000, Size: 8, Type: 3},
		{ID: 11, Name: "empty", Addr: 0x2000},
		{ID: 12, Name: "alias_of_X", Addr: 0x1000, Size: 8, Type: 3},
		{ID: 13, Name: "init_mm", Addr: 0x3000, Size: 0x400, Type: 4},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Len(Static))

	l, ok := s.FindContaining(Static, 0x1004)
	require.True(t, ok)
	assert.Equal(t, Label{Category: Static, Base: 0x1000, Size: 8, Name: "X",
		Global: true, Symbol: 10}, *l)

	_, ok = s.FindContaining(Static, 0x2000)
	assert.False(t, ok)
}

func TestLoadStaticError(t *testing.T) {
	boom := errors.New("no debug info")
	_, err := LoadStatic(NewStore(0), fakeVariables{err: boom})
	require.ErrorIs(t, err, boom)
}
