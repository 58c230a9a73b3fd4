// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package vc provides buildtime information.
package vc // import "github.com/mtrace-tools/lockinfer/vc"

import (
	"fmt"
	"runtime/debug"
)

var (
	// The following variables are going to be set at link time using ldflags
	// and can be referenced later in the program.

	// revision of the source tree
	revision = ""
	// buildTimestamp, timestamp of the build
	buildTimestamp = ""
	// version in vX.Y.Z{-N-abbrev} format (via git-describe --tags)
	version = ""
)

// Revision of the source tree. Falls back to the VCS revision recorded by
// the Go toolchain.
func Revision() string {
	if revision != "" {
		return revision
	}
	return buildSetting("vcs.revision")
}

// BuildTimestamp returns the timestamp of the build.
func BuildTimestamp() string {
	if buildTimestamp != "" {
		return buildTimestamp
	}
	return buildSetting("vcs.time")
}

// Version in vX.Y.Z{-N-abbrev} format, or the module version when not set
// at link time.
func Version() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// String returns the one-line version banner of the tools.
func String() string {
	s := Version()
	if rev := Revision(); rev != "" {
		s += " (revision " + rev
		if ts := BuildTimestamp(); ts != "" {
			s += ", built " + ts
		}
		s += ")"
	}
	return fmt.Sprintf("lockinfer %s", s)
}

func buildSetting(key string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
