// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package label // import "github.com/mtrace-tools/lockinfer/label"

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mtrace-tools/lockinfer/libpf"
)

// VariableSource enumerates the static variables of a symbol image.
type VariableSource interface {
	Variables() ([]libpf.Variable, error)
}

// LoadStatic seeds the Static category of s with one label per sized static
// variable of src. It must run once, before any trace event is handled.
// It returns the number of labels inserted.
func LoadStatic(s *Store, src VariableSource) (int, error) {
	vars, err := src.Variables()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate static variables: %w", err)
	}

	n := 0
	for _, v := range vars {
		if v.Size == 0 {
			continue
		}
		err = s.Insert(Label{
			Category: Static,
			Base:     v.Addr,
			Size:     v.Size,
			Name:     v.Name,
			Global:   true,
			Symbol:   v.ID,
		})
		if errors.Is(err, ErrInconsistent) {
			// Aliases of the same storage are common in kernel debug info.
			log.Debugf("Skipping static variable %s: %v", v.Name, err)
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
