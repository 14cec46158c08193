/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
)

// Config holds the knobs of a pipeline run.
type Config struct {
	// TargetFile is the file edited in every repository, relative to the
	// working tree root.
	TargetFile string
	// GenerationTokenBudget caps the length of a proposed edit.
	GenerationTokenBudget int64
	// SummaryTokenBudget caps the length of a change summary.
	SummaryTokenBudget int64
	// Temperature overrides the backend's sampling temperature when set.
	Temperature *float64
	// AcceptanceLengthRatio is the fraction of the original length a
	// candidate must exceed to be accepted.
	AcceptanceLengthRatio float64
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		TargetFile:            "README.md",
		GenerationTokenBudget: 500,
		SummaryTokenBudget:    50,
		AcceptanceLengthRatio: DefaultAcceptanceLengthRatio,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.TargetFile == "":
		return errors.New("target file cannot be empty")
	case filepath.IsAbs(c.TargetFile) || !filepath.IsLocal(c.TargetFile):
		return fmt.Errorf("target file %q must be a path inside the repository", c.TargetFile)
	case c.GenerationTokenBudget <= 0:
		return fmt.Errorf("generation token budget must be positive, got %d", c.GenerationTokenBudget)
	case c.SummaryTokenBudget <= 0:
		return fmt.Errorf("summary token budget must be positive, got %d", c.SummaryTokenBudget)
	case c.Temperature != nil && *c.Temperature < 0:
		return fmt.Errorf("temperature cannot be negative, got %f", *c.Temperature)
	}
	return validateRatio(c.AcceptanceLengthRatio)
}

func validateRatio(ratio float64) error {
	if !(ratio > 0 && ratio <= 1) {
		return fmt.Errorf("acceptance length ratio must be in (0, 1], got %v", ratio)
	}
	return nil
}

// baseName returns the file name without directory or extension, e.g.
// "README" for "docs/README.md".
func baseName(file string) string {
	b := path.Base(filepath.ToSlash(file))
	return b[:len(b)-len(path.Ext(b))]
}
