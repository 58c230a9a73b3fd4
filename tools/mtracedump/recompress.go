// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"
	log "github.com/sirupsen/logrus"

	"github.com/mtrace-tools/lockinfer/mtrace"
)

type recompressCmd struct {
	// User-specified command line arguments.
	input, output, compression string
}

func newRecompressCmd() *ffcli.Command {
	cmd := recompressCmd{}
	set := flag.NewFlagSet("recompress", flag.ExitOnError)
	set.StringVar(&cmd.input, "i", "", "Path of the mtrace log to read")
	set.StringVar(&cmd.output, "o", "", "Path of the mtrace log to write")
	set.StringVar(&cmd.compression, "c", "zstd", "Output compression: none, gzip or zstd")
	return &ffcli.Command{
		Name:       "recompress",
		ShortUsage: "recompress -i <in> -o <out> [-c zstd]",
		ShortHelp:  "Re-encode an mtrace log with a different compression",
		FlagSet:    set,
		Exec:       cmd.exec,
	}
}

func (cmd *recompressCmd) exec(ctx context.Context, _ []string) error {
	if cmd.input == "" || cmd.output == "" {
		return errors.New("both -i and -o are required")
	}
	c, err := mtrace.ParseCompression(cmd.compression)
	if err != nil {
		return err
	}

	r, err := mtrace.Open(cmd.input)
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := os.Create(cmd.output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cmd.output, err)
	}
	defer f.Close()

	n, err := recompress(ctx, r, f, c)
	if err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	log.Infof("Wrote %d records from %s (%s) to %s (%s)",
		n, cmd.input, r.Compression(), cmd.output, c)
	return nil
}

func recompress(ctx context.Context, r *mtrace.Reader, out io.Writer,
	c mtrace.Compression) (uint64, error) {
	w, err := mtrace.NewWriter(out, c)
	if err != nil {
		return 0, err
	}

	var e mtrace.Entry
	var n uint64
	for ; ; n++ {
		if n%4096 == 0 && ctx.Err() != nil {
			return n, ctx.Err()
		}
		err = r.Next(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, err
		}
		if err = w.Write(&e); err != nil {
			return n, err
		}
	}
	return n, w.Close()
}
