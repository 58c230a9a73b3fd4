// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressHash(t *testing.T) {
	a := Address(0xffffffff81000000)
	assert.Equal(t, a.Hash(), Address(0xffffffff81000000).Hash())
	assert.NotEqual(t, a.Hash(), (a + 8).Hash())
	assert.Equal(t, uint32(a.Hash()), a.Hash32())
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "0x1000", Address(0x1000).String())
	assert.Equal(t, "0x0", Address(0).String())
}
