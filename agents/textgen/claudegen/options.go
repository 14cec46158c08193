/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudegen

import (
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/retry"
)

// Option is a functional option for configuring the generator
type Option func(*Generator) error

// WithModel allows overriding the model name
func WithModel(model string) Option {
	return func(g *Generator) error {
		if !strings.HasPrefix(model, "claude-") {
			return fmt.Errorf("model %q does not appear to be a Claude model (expected claude-* format)", model)
		}
		g.model = model
		return nil
	}
}

// WithTemperature sets the default temperature used when a request does not
// carry its own. Claude models support values from 0.0 to 1.0.
func WithTemperature(temp float64) Option {
	return func(g *Generator) error {
		if temp < 0.0 || temp > 1.0 {
			return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", temp)
		}
		g.temperature = &temp
		return nil
	}
}

// WithRetryConfig sets how overload and rate-limit errors are retried
func WithRetryConfig(cfg retry.Config) Option {
	return func(g *Generator) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		g.retryConfig = cfg
		return nil
	}
}

// WithMetrics records token usage on m
func WithMetrics(m *metrics.Generation) Option {
	return func(g *Generator) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		g.metrics = m
		return nil
	}
}
