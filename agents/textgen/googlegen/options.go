/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googlegen

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
		if !strings.HasPrefix(model, "gemini-") {
			return fmt.Errorf("model %q does not appear to be a Gemini model (expected gemini-* format)", model)
		}
		g.model = model
		return nil
	}
}

// WithTemperature sets the default temperature for generation.
// Gemini models support temperature values from 0.0 to 2.0.
func WithTemperature(temperature float64) Option {
	return func(g *Generator) error {
		if temperature < 0.0 || temperature > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temperature)
		}
		g.temperature = &temperature
		return nil
	}
}

// WithRetryConfig sets how quota and server errors are retried
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
