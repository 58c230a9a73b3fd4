// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// mtracedump provides a tool for inspecting and converting mtrace logs.

package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetReportCaller(false)
	log.SetFormatter(&log.TextFormatter{})

	root := ffcli.Command{
		Name:       "mtracedump",
		ShortUsage: "mtracedump <subcommand> [flags]",
		ShortHelp:  "Tool for inspecting and converting mtrace logs",
		Subcommands: []*ffcli.Command{
			newDumpCmd(os.Stdout),
			newRecompressCmd(),
			newStatsCmd(os.Stdout),
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}

	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			log.Fatalf("%v", err)
		}
	}
}
