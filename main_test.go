// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"debug/elf"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrace-tools/lockinfer/config"
	"github.com/mtrace-tools/lockinfer/label"
	"github.com/mtrace-tools/lockinfer/mtrace"
	"github.com/mtrace-tools/lockinfer/reporter"
)

func TestParseArgs(t *testing.T) {
	tests := map[string]struct {
		argv    []string
		wantErr bool
		check   func(t *testing.T, args *arguments)
	}{
		"defaults": {
			argv: []string{"trace.mtrace", "vmlinux"},
			check: func(t *testing.T, args *arguments) {
				assert.Equal(t, config.Default(), args.cfg)
				assert.Equal(t, formatText, args.format)
				assert.Equal(t, "trace.mtrace", args.tracePath)
				assert.Equal(t, "vmlinux", args.imagePath)
			},
		},
		"overrides": {
			argv: []string{"-lock", "&inode->i_mutex", "-baseline", "inode",
				"-min-locked-frequency", "0.5", "-min-samples", "3",
				"-max-removal-misses", "7", "-format", "json", "-v", "t", "i"},
			check: func(t *testing.T, args *arguments) {
				assert.Equal(t, config.Config{
					LockName:           "&inode->i_mutex",
					Baseline:           "inode",
					MinLockedFrequency: 0.5,
					MinSamples:         3,
					MaxRemovalMisses:   7,
				}, args.cfg)
				assert.Equal(t, formatJSON, args.format)
				assert.True(t, args.verboseMode)
			},
		},
		"version needs no positional arguments": {
			argv: []string{"-version"},
			check: func(t *testing.T, args *arguments) {
				assert.True(t, args.version)
			},
		},
		"missing image": {
			argv:    []string{"trace.mtrace"},
			wantErr: true,
		},
		"too many args": {
			argv:    []string{"a", "b", "c"},
			wantErr: true,
		},
		"unknown format": {
			argv:    []string{"-format", "xml", "a", "b"},
			wantErr: true,
		},
		"invalid frequency": {
			argv:    []string{"-min-locked-frequency", "1.5", "a", "b"},
			wantErr: true,
		},
		"unknown flag": {
			argv:    []string{"-tracers", "all", "a", "b"},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			args, err := parseArgs(tc.argv)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, args)
		})
	}
}

func TestParseArgsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockinfer.conf")
	require.NoError(t, os.WriteFile(path, []byte("min-samples 3\nformat json\n"), 0o600))

	args, err := parseArgs([]string{"-config", path, "-min-samples", "5", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), args.cfg.MinSamples)
	assert.Equal(t, formatJSON, args.format)
}

func TestExitCodes(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitParseError, mainWithExitCode([]string{"only-one"}, &out))
	assert.Equal(t, exitSuccess, mainWithExitCode([]string{"-version"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "lockinfer "))

	dir := t.TempDir()
	assert.Equal(t, exitFailure, mainWithExitCode([]string{
		filepath.Join(dir, "missing.mtrace"), filepath.Join(dir, "missing-vmlinux"),
	}, &out))
}

// selfImage returns the path of the test binary if it carries DWARF.
func selfImage(t *testing.T) string {
	t.Helper()
	path, err := os.Executable()
	require.NoError(t, err)
	f, err := elf.Open(path)
	if err != nil {
		t.Skipf("test binary is not an ELF file: %v", err)
	}
	defer f.Close()
	if _, err = f.DWARF(); err != nil {
		t.Skipf("test binary carries no DWARF: %v", err)
	}
	return path
}

func writeTrace(t *testing.T, c mtrace.Compression, entries ...mtrace.Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.mtrace")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := mtrace.NewWriter(f, c)
	require.NoError(t, err)
	for i := range entries {
		require.NoError(t, w.Write(&entries[i]))
	}
	require.NoError(t, w.Close())
	return path
}

func replayTrace() []mtrace.Entry {
	heap := uint8(label.Heap)
	entries := []mtrace.Entry{
		mtrace.NewLabel(heap, 0x100, 0x40, "vm_area_struct"),
		mtrace.NewLabel(heap, 0x200, 0x40, "mm_struct"),
		mtrace.NewAccess(0x8),
	}
	for range 12 {
		entries = append(entries,
			mtrace.NewLock(config.DefaultLockName, false),
			mtrace.NewAccess(0x208),
			mtrace.NewLock(config.DefaultLockName, true),
			mtrace.NewAccess(0x110))
	}
	return entries
}

func TestRun(t *testing.T) {
	image := selfImage(t)
	trace := writeTrace(t, mtrace.Gzip, replayTrace()...)

	args, err := parseArgs([]string{trace, image})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, &out))
	assert.Equal(t,
		"Loading symbols and types...\n"+
			"Processing log...\n"+
			"1 unknown accesses\n"+
			"mm_struct+0x8                                      100% 12\n"+
			"vm_area_struct+0x10                                  0% 12\n",
		out.String())
}

func TestRunJSON(t *testing.T) {
	image := selfImage(t)
	trace := writeTrace(t, mtrace.None, replayTrace()...)

	args, err := parseArgs([]string{"-format", "json", "-baseline", "none", trace, image})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, &out))

	report := out.String()[strings.Index(out.String(), "["):]
	var lines []reporter.Line
	require.NoError(t, json.Unmarshal([]byte(report), &lines))
	assert.Equal(t, []reporter.Line{
		{Field: "mm_struct+0x8", Percent: 100, Total: 12, Locked: 12},
	}, lines)
}

func TestRunRejectsUnbalancedTrace(t *testing.T) {
	image := selfImage(t)
	trace := writeTrace(t, mtrace.Zstd, mtrace.NewLock(config.DefaultLockName, true))

	args, err := parseArgs([]string{trace, image})
	require.NoError(t, err)
	require.Error(t, run(context.Background(), args, &bytes.Buffer{}))
}
