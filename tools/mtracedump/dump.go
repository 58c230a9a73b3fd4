// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/mtrace-tools/lockinfer/mtrace"
)

type dumpCmd struct {
	out io.Writer

	// User-specified command line arguments.
	input string
	kinds string
	limit uint64
}

func newDumpCmd(out io.Writer) *ffcli.Command {
	cmd := dumpCmd{out: out}
	set := flag.NewFlagSet("dump", flag.ExitOnError)
	set.StringVar(&cmd.input, "i", "", "Path of the mtrace log")
	set.StringVar(&cmd.kinds, "kinds", "label,access,lock",
		"Comma-separated list of record kinds to print")
	set.Uint64Var(&cmd.limit, "n", 0, "Stop after printing this many records (0: no limit)")
	return &ffcli.Command{
		Name:       "dump",
		ShortUsage: "dump -i <trace> [flags]",
		ShortHelp:  "Print the records of an mtrace log, one per line",
		FlagSet:    set,
		Exec:       cmd.exec,
	}
}

// parseKinds parses a comma-separated list of record kind names.
func parseKinds(s string) (map[mtrace.Kind]bool, error) {
	kinds := make(map[mtrace.Kind]bool)
	for name := range strings.SplitSeq(s, ",") {
		switch strings.TrimSpace(name) {
		case "label":
			kinds[mtrace.KindLabel] = true
		case "access":
			kinds[mtrace.KindAccess] = true
		case "lock":
			kinds[mtrace.KindLock] = true
		case "":
		default:
			return nil, fmt.Errorf("unknown record kind %q", name)
		}
	}
	return kinds, nil
}

func (cmd *dumpCmd) exec(ctx context.Context, _ []string) error {
	if cmd.input == "" {
		return errors.New("missing -i argument")
	}
	kinds, err := parseKinds(cmd.kinds)
	if err != nil {
		return err
	}

	r, err := mtrace.Open(cmd.input)
	if err != nil {
		return err
	}
	defer r.Close()

	return dump(ctx, r, cmd.out, kinds, cmd.limit)
}

func dump(ctx context.Context, r *mtrace.Reader, out io.Writer,
	kinds map[mtrace.Kind]bool, limit uint64) error {
	w := bufio.NewWriter(out)
	var e mtrace.Entry
	for printed := uint64(0); limit == 0 || printed < limit; {
		if err := r.Next(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if !kinds[e.Kind] {
			continue
		}
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
		printed++
		if printed%4096 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return w.Flush()
}
