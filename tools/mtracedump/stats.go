// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/mtrace-tools/lockinfer/mtrace"
)

type statsCmd struct {
	out io.Writer

	// User-specified command line arguments.
	input string
}

func newStatsCmd(out io.Writer) *ffcli.Command {
	cmd := statsCmd{out: out}
	set := flag.NewFlagSet("stats", flag.ExitOnError)
	set.StringVar(&cmd.input, "i", "", "Path of the mtrace log")
	return &ffcli.Command{
		Name:       "stats",
		ShortUsage: "stats -i <trace>",
		ShortHelp:  "Count the records of an mtrace log by kind",
		FlagSet:    set,
		Exec:       cmd.exec,
	}
}

type logStats struct {
	compression mtrace.Compression
	bytes       uint64
	kinds       map[mtrace.Kind]uint64
	locks       map[string]uint64
}

func collectStats(r *mtrace.Reader) (*logStats, error) {
	s := &logStats{
		compression: r.Compression(),
		kinds:       make(map[mtrace.Kind]uint64),
		locks:       make(map[string]uint64),
	}
	var e mtrace.Entry
	for {
		err := r.Next(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		s.kinds[e.Kind]++
		if e.Kind == mtrace.KindLock {
			s.locks[e.Lock.Str]++
		}
	}
	s.bytes = r.Offset()
	return s, nil
}

func (s *logStats) write(w io.Writer) {
	fmt.Fprintf(w, "compression: %s\n", s.compression)
	fmt.Fprintf(w, "bytes:       %d\n", s.bytes)
	for _, k := range slices.Sorted(maps.Keys(s.kinds)) {
		fmt.Fprintf(w, "%-12s %d\n", k.String()+":", s.kinds[k])
	}
	for _, name := range slices.Sorted(maps.Keys(s.locks)) {
		fmt.Fprintf(w, "  %-40s %d\n", name, s.locks[name])
	}
}

func (cmd *statsCmd) exec(context.Context, []string) error {
	if cmd.input == "" {
		return errors.New("missing -i argument")
	}
	r, err := mtrace.Open(cmd.input)
	if err != nil {
		return err
	}
	defer r.Close()

	s, err := collectStats(r)
	if err != nil {
		return err
	}
	s.write(cmd.out)
	return nil
}
