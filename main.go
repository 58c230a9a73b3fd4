// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// lockinfer replays an mtrace log of a guest kernel and reports the
// structure fields that are predominantly accessed while a given lock is
// held.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/mtrace-tools/lockinfer/label"
	"github.com/mtrace-tools/lockinfer/lockstate"
	"github.com/mtrace-tools/lockinfer/metrics"
	"github.com/mtrace-tools/lockinfer/mtrace"
	"github.com/mtrace-tools/lockinfer/reporter"
	"github.com/mtrace-tools/lockinfer/stats"
	"github.com/mtrace-tools/lockinfer/symtab"
	"github.com/mtrace-tools/lockinfer/tracehandler"
	"github.com/mtrace-tools/lockinfer/vc"
)

type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	exitParseError exitCode = 2
)

// Compile time check to make sure the symbol image can render the report.
var _ reporter.SymbolResolver = (*symtab.Image)(nil)

func main() {
	os.Exit(int(mainWithExitCode(os.Args[1:], os.Stdout)))
}

func mainWithExitCode(argv []string, stdout io.Writer) exitCode {
	args, err := parseArgs(argv)
	if errors.Is(err, flag.ErrHelp) {
		return exitSuccess
	}
	if err != nil {
		return parseError("Failure to parse arguments: %v", err)
	}

	if args.version {
		fmt.Fprintln(stdout, vc.String())
		return exitSuccess
	}

	if args.verboseMode {
		log.SetLevel(log.DebugLevel)
		// Dump the arguments in debug mode.
		args.dump()
	} else {
		// Progress goes to stdout, stderr is reserved for problems.
		log.SetLevel(log.WarnLevel)
	}

	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM)
	defer mainCancel()

	if err = run(mainCtx, args, stdout); err != nil {
		return failure("%v", err)
	}
	return exitSuccess
}

// run performs one analysis: it seeds the static labels from the symbol
// image, replays the trace and prints the report.
func run(ctx context.Context, args *arguments, stdout io.Writer) error {
	fmt.Fprintln(stdout, "Loading symbols and types...")
	image, err := symtab.Open(args.imagePath)
	if err != nil {
		return fmt.Errorf("failed to load symbol image %s: %w", args.imagePath, err)
	}
	defer image.Close()

	store := label.NewStore(args.cfg.MaxRemovalMisses)
	n, err := label.LoadStatic(store, image)
	if err != nil {
		return err
	}
	metrics.Add(metrics.IDStaticLabels, metrics.MetricValue(n))
	log.Infof("Loaded %d static variables from %s", n, args.imagePath)

	fmt.Fprintln(stdout, "Processing log...")
	src, err := mtrace.Open(args.tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace %s: %w", args.tracePath, err)
	}
	defer src.Close()
	log.Infof("Trace %s uses %s compression", args.tracePath, src.Compression())

	agg := stats.NewAggregator()
	handler := tracehandler.New(store, lockstate.New(args.cfg.LockName), agg)
	summary, err := handler.Replay(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to replay %s: %w", args.tracePath, err)
	}
	fmt.Fprintf(stdout, "%d unknown accesses\n", summary.Unresolved)

	lines := reporter.Build(agg.Entries(), image, reporter.Filter{
		MinLockedFrequency: args.cfg.MinLockedFrequency,
		MinSamples:         args.cfg.MinSamples,
		Baseline:           args.cfg.Baseline,
	})
	if args.format == formatJSON {
		return reporter.WriteJSON(stdout, lines)
	}
	return reporter.Write(stdout, lines)
}

func parseError(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitParseError
}

func failure(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitFailure
}
