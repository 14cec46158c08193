/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaigen

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/retry"
	"chainguard.dev/touchup/agents/textgen"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
)

// Backend is the backend name used in logs and metrics.
const Backend = "openai"

// DefaultModel is the completions model used when none is configured.
const DefaultModel = string(openai.CompletionNewParamsModelGPT3_5TurboInstruct)

// Generator completes prompts with the OpenAI completions API.
type Generator struct {
	client      openai.Client
	model       string
	temperature *float64
	retryConfig retry.Config
	metrics     *metrics.Generation
}

var _ textgen.Interface = (*Generator)(nil)

// New creates a Generator over client.
func New(client openai.Client, opts ...Option) (*Generator, error) {
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

	params := openai.CompletionNewParams{
		Model:     openai.CompletionNewParamsModel(g.model),
		Prompt:    openai.CompletionNewParamsPromptUnion{OfString: openai.String(req.Prompt)},
		MaxTokens: openai.Int(req.MaxTokens),
	}
	if temp := pickTemperature(req.Temperature, g.temperature); temp != nil {
		params.Temperature = openai.Float(*temp)
	}

	clog.FromContext(ctx).With("backend", Backend).
		With("model", g.model).
		With("purpose", req.Purpose).
		With("prompt_length", len(req.Prompt)).
		Debug("Requesting completion")

	resp, err := retry.Do(ctx, g.retryConfig, "openai completion", isRetryable, func() (*openai.Completion, error) {
		return g.client.Completions.New(ctx, params)
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}

	g.metrics.RecordTokens(ctx, Backend, g.model, req.Purpose, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", textgen.ErrNoChoices
	}
	return resp.Choices[0].Text, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return retry.HTTPStatusRetryable(apiErr.StatusCode)
	}
	return false
}

func pickTemperature(request, fallback *float64) *float64 {
	if request != nil {
		return request
	}
	return fallback
}
