// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	log "github.com/sirupsen/logrus"

	"github.com/mtrace-tools/lockinfer/config"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var errUsage = errors.New("usage error")

// Help strings for command line arguments
var (
	baselineHelp = "Structure whose fields are always reported, " +
		"as a reference for fields known to be protected by the lock."
	configHelp             = "Plain text file with one \"flag value\" pair per line."
	formatHelp             = "Report format, one of text or json."
	lockHelp               = "Name of the lock whose protocol is inferred."
	maxRemovalMissesHelp   = "Removals of unknown labels tolerated before the log is rejected."
	minLockedFrequencyHelp = "Share of accesses with the lock held a field needs to be reported."
	minSamplesHelp         = "Number of accesses a field needs to be reported."
	verboseModeHelp        = "Enable verbose logging."
	versionHelp            = "Show version."
)

type arguments struct {
	cfg         config.Config
	format      string
	verboseMode bool
	version     bool

	tracePath string
	imagePath string

	fs *flag.FlagSet
}

func parseArgs(argv []string) (*arguments, error) {
	args := arguments{cfg: config.Default()}

	fs := flag.NewFlagSet("lockinfer", flag.ContinueOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.StringVar(&args.cfg.Baseline, "baseline", config.DefaultBaseline, baselineHelp)

	fs.String("config", "", configHelp)

	fs.StringVar(&args.format, "format", formatText, formatHelp)

	fs.StringVar(&args.cfg.LockName, "lock", config.DefaultLockName, lockHelp)

	fs.IntVar(&args.cfg.MaxRemovalMisses, "max-removal-misses",
		config.DefaultMaxRemovalMisses, maxRemovalMissesHelp)
	fs.Float64Var(&args.cfg.MinLockedFrequency, "min-locked-frequency",
		config.DefaultMinLockedFrequency, minLockedFrequencyHelp)
	fs.Uint64Var(&args.cfg.MinSamples, "min-samples", config.DefaultMinSamples,
		minSamplesHelp)

	fs.BoolVar(&args.verboseMode, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&args.verboseMode, "verbose", false, verboseModeHelp)
	fs.BoolVar(&args.version, "version", false, versionHelp)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: lockinfer [flags] <trace-file> <vmlinux>\n")
		fs.PrintDefaults()
	}

	args.fs = fs

	err := ff.Parse(fs, argv,
		ff.WithEnvVarPrefix("LOCKINFER"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithAllowMissingConfigFile(true),
	)
	if err != nil {
		return &args, err
	}
	if args.version {
		return &args, nil
	}

	if fs.NArg() != 2 {
		return &args, fmt.Errorf("%w: expected <trace-file> <vmlinux>, got %d arguments",
			errUsage, fs.NArg())
	}
	args.tracePath, args.imagePath = fs.Arg(0), fs.Arg(1)

	switch args.format {
	case formatText, formatJSON:
	default:
		return &args, fmt.Errorf("%w: unknown report format %q", errUsage, args.format)
	}
	if err = args.cfg.Validate(); err != nil {
		return &args, err
	}
	return &args, nil
}

// dump logs the parsed arguments in debug mode.
func (args *arguments) dump() {
	log.Debug("Config:")
	args.fs.VisitAll(func(f *flag.Flag) {
		log.Debug(fmt.Sprintf("%s: %v", f.Name, f.Value))
	})
	log.Debugf("trace: %s", args.tracePath)
	log.Debugf("image: %s", args.imagePath)
}
