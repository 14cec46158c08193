/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaigen

import (
	"errors"
	"fmt"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/retry"
)

// Option is a functional option for configuring the generator
type Option func(*Generator) error

// WithModel overrides the completion model name
func WithModel(model string) Option {
	return func(g *Generator) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		g.model = model
		return nil
	}
}

// WithTemperature sets the default sampling temperature (0.0 to 2.0) used
// when a request does not carry its own.
func WithTemperature(temp float64) Option {
	return func(g *Generator) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		g.temperature = &temp
		return nil
	}
}

// WithRetryConfig sets how transient API errors are retried
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
