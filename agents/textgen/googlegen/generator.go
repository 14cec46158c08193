/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googlegen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/retry"
	"chainguard.dev/touchup/agents/textgen"
	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"
)

// Backend is the backend name used in logs and metrics.
const Backend = "gemini"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator completes prompts with Gemini.
type Generator struct {
	client      *genai.Client
	model       string
	temperature *float64
	retryConfig retry.Config
	metrics     *metrics.Generation
}

var _ textgen.Interface = (*Generator)(nil)

// New creates a Generator over client.
func New(client *genai.Client, opts ...Option) (*Generator, error) {
	if client == nil {
		return nil, errors.New("genai client cannot be nil")
	}
	g := &Generator{
		client:      client,
		model:       DefaultModel,
		retryConfig: retry.DefaultConfig(),
		metrics:     metrics.NewGeneration(nil),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return g, nil
}

// Complete implements textgen.Interface.
func (g *Generator) Complete(ctx context.Context, req textgen.Request) (text string, err error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	defer func() { g.metrics.RecordRequest(ctx, Backend, g.model, req.Purpose, err) }()

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(min(req.MaxTokens, math.MaxInt32)),
	}
	temp := req.Temperature
	if temp == nil {
		temp = g.temperature
	}
	if temp != nil {
		config.Temperature = genai.Ptr(float32(*temp))
	}

	clog.FromContext(ctx).With("backend", Backend).
		With("model", g.model).
		With("purpose", req.Purpose).
		Debug("Generating content")

	resp, err := retry.Do(ctx, g.retryConfig, "gemini generate", isRetryable, func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if resp.UsageMetadata != nil {
		g.metrics.RecordTokens(ctx, Backend, g.model, req.Purpose,
			int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}
	if len(resp.Candidates) == 0 {
		return "", textgen.ErrNoChoices
	}
	return resp.Text(), nil
}

// isRetryable checks for rate limit, quota exhaustion, and transient server
// errors. Errors that did not come back as an APIError are matched on text.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retry.HTTPStatusRetryable(apiErr.Code)
	}
	errStr := err.Error()
	return strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "Resource exhausted") ||
		strings.Contains(errStr, "quota exceeded")
}
