// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "github.com/mtrace-tools/lockinfer/reporter"

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Write prints lines in the fixed-width text format.
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := fmt.Fprintf(bw, "%-50s %3d%% %d\n", l.Field, l.Percent, l.Total); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteJSON prints lines as an indented JSON array.
func WriteJSON(w io.Writer, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(lines); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
