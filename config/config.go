// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package config holds the tunables of a lock inference run.
package config // import "github.com/mtrace-tools/lockinfer/config"

import (
	"errors"
	"fmt"

	"github.com/mtrace-tools/lockinfer/label"
)

const (
	// DefaultLockName is the lock whose protocol is inferred.
	DefaultLockName = "&mm->mmap_sem"
	// DefaultBaseline is the structure always shown in the report, whose
	// protection by DefaultLockName is known and serves as calibration.
	DefaultBaseline = "vm_area_struct"
	// DefaultMinLockedFrequency is the share of locked accesses an offset
	// needs to be reported.
	DefaultMinLockedFrequency = 0.80
	// DefaultMinSamples is the number of accesses an offset needs to be
	// reported.
	DefaultMinSamples = 10
	// DefaultMaxRemovalMisses is the number of removals of unknown labels
	// tolerated as noise.
	DefaultMaxRemovalMisses = label.DefaultMaxRemovalMisses
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the configuration of a lock inference run.
type Config struct {
	LockName           string  `json:"lock_name"`
	Baseline           string  `json:"baseline"`
	MinLockedFrequency float64 `json:"min_locked_frequency"`
	MinSamples         uint64  `json:"min_samples"`
	MaxRemovalMisses   int     `json:"max_removal_misses"`
}

// Default returns the thresholds tuned for mmap_sem on vm_area_struct.
func Default() Config {
	return Config{
		LockName:           DefaultLockName,
		Baseline:           DefaultBaseline,
		MinLockedFrequency: DefaultMinLockedFrequency,
		MinSamples:         DefaultMinSamples,
		MaxRemovalMisses:   DefaultMaxRemovalMisses,
	}
}

// Validate runs validations on the provided configuration, and returns errors
// if invalid values were provided.
func (cfg *Config) Validate() error {
	if cfg.LockName == "" {
		return fmt.Errorf("%w: lock name must not be empty", ErrInvalid)
	}
	// Negated so that NaN is rejected as well.
	if !(cfg.MinLockedFrequency >= 0 && cfg.MinLockedFrequency <= 1) {
		return fmt.Errorf("%w: minimum locked frequency %v outside of [0, 1]",
			ErrInvalid, cfg.MinLockedFrequency)
	}
	if cfg.MaxRemovalMisses < 0 {
		return fmt.Errorf("%w: negative removal miss tolerance %d",
			ErrInvalid, cfg.MaxRemovalMisses)
	}
	return nil
}
