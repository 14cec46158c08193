/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/retry"
	"chainguard.dev/touchup/agents/textgen"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
)

// Backend is the backend name used in logs and metrics.
const Backend = "anthropic"

// DefaultModel is used when no model is configured.
const DefaultModel = string(anthropic.ModelClaudeSonnet4_5)

// Generator completes prompts with Claude.
type Generator struct {
	client      anthropic.Client
	model       string
	temperature *float64
	retryConfig retry.Config
	metrics     *metrics.Generation
}

var _ textgen.Interface = (*Generator)(nil)

// New creates a Generator over client.
func New(client anthropic.Client, opts ...Option) (*Generator, error) {
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

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: req.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	temp := req.Temperature
	if temp == nil {
		temp = g.temperature
	}
	if temp != nil {
		params.Temperature = anthropic.Float(*temp)
	}

	log := clog.FromContext(ctx).With("backend", Backend).With("model", g.model).With("purpose", req.Purpose)
	log.Debug("Sending message")

	msg, err := retry.Do(ctx, g.retryConfig, "claude message", isRetryable, func() (*anthropic.Message, error) {
		return g.client.Messages.New(ctx, params)
	})
	if err != nil {
		return "", fmt.Errorf("claude message: %w", err)
	}

	g.metrics.RecordTokens(ctx, Backend, g.model, req.Purpose, msg.Usage.InputTokens, msg.Usage.OutputTokens)
	log.With("stop_reason", string(msg.StopReason)).
		With("output_tokens", msg.Usage.OutputTokens).
		Debug("Received message")

	var sb strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		found = true
		sb.WriteString(block.Text)
	}
	if !found {
		return "", textgen.ErrNoChoices
	}
	return sb.String(), nil
}

// isRetryable reports rate limits (429), overload (529) and transient
// server errors.
func isRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return retry.HTTPStatusRetryable(apiErr.StatusCode)
	}
	return false
}
