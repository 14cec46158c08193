/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package textgen defines the text-generation capability the pipeline is
// written against. Concrete backends live in subpackages (claudegen,
// openaigen, googlegen, ollamagen) and are selected at startup by the
// backend package.
package textgen

import (
	"context"
	"errors"
	"fmt"
)

// Purposes label what a completion is used for in logs and metrics.
const (
	PurposeEdit    = "edit"
	PurposeSummary = "summary"
)

// Request is a single completion request.
type Request struct {
	// Prompt is the full prompt text.
	Prompt string
	// MaxTokens bounds the length of the completion.
	MaxTokens int64
	// Temperature overrides the backend's sampling temperature when non-nil.
	Temperature *float64
	// Purpose labels the call (PurposeEdit, PurposeSummary).
	Purpose string
}

// Validate checks the backend-independent request constraints.
func (r Request) Validate() error {
	if r.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", r.MaxTokens)
	}
	if r.Temperature != nil && *r.Temperature < 0 {
		return fmt.Errorf("temperature cannot be negative, got %f", *r.Temperature)
	}
	return nil
}

// Interface generates a completion for a prompt. Implementations block until
// the backend answers and return the raw completion text.
type Interface interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts an ordinary function to Interface.
type Func func(ctx context.Context, req Request) (string, error)

// Complete implements Interface.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrNoChoices is returned by backends whose response carried no completion
// at all (as opposed to an empty completion).
var ErrNoChoices = errors.New("backend returned no completion choices")

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 {
	return &v
}
