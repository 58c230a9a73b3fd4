// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package label // import "github.com/mtrace-tools/lockinfer/label"

import "fmt"

// Category classifies where a label came from. Every category has its own
// address space partition in the Store. The numeric values are the mtrace
// wire encoding.
type Category uint8

const (
	Heap Category = iota + 1
	Block
	Static
	PerCPU

	// End is not a category. It bounds the valid range.
	End
)

// Valid reports whether c names a real category.
func (c Category) Valid() bool {
	return c >= Heap && c < End
}

func (c Category) String() string {
	switch c {
	case Heap:
		return "heap"
	case Block:
		return "block"
	case Static:
		return "static"
	case PerCPU:
		return "percpu"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ResolveOrder is the order in which categories are consulted when mapping
// an access to a label. It follows the enumeration order.
var ResolveOrder = [...]Category{Heap, Block, Static, PerCPU}
