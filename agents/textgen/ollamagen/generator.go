/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ollamagen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/retry"
	"chainguard.dev/touchup/agents/textgen"
	"github.com/chainguard-dev/clog"
	"github.com/tmc/langchaingo/llms"
)

// Backend is the backend name used in logs and metrics.
const Backend = "ollama"

// DefaultModel is used when no model is configured.
const DefaultModel = "llama3.2"

// DefaultTemperature matches the Ollama server default.
const DefaultTemperature = 0.8

// Generator completes prompts with any langchaingo model; in practice an
// *ollama.LLM.
type Generator struct {
	llm         llms.Model
	model       string
	temperature float64
	retryConfig retry.Config
	metrics     *metrics.Generation
}

var _ textgen.Interface = (*Generator)(nil)

// Option is a functional option for configuring the generator
type Option func(*Generator) error

// WithTemperature sets the temperature used when a request carries none.
func WithTemperature(temp float64) Option {
	return func(g *Generator) error {
		if temp < 0 {
			return fmt.Errorf("temperature cannot be negative, got %f", temp)
		}
		g.temperature = temp
		return nil
	}
}

// WithRetryConfig sets how a busy server is retried
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

// New creates a Generator. model is only used to label logs and metrics;
// the llm decides which model actually runs.
func New(llm llms.Model, model string, opts ...Option) (*Generator, error) {
	if llm == nil {
		return nil, errors.New("llm cannot be nil")
	}
	if model == "" {
		model = DefaultModel
	}
	g := &Generator{
		llm:         llm,
		model:       model,
		temperature: DefaultTemperature,
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

	temp := g.temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	clog.FromContext(ctx).With("backend", Backend).
		With("model", g.model).
		With("purpose", req.Purpose).
		Debug("Generating content")

	resp, err := retry.Do(ctx, g.retryConfig, "ollama chat", isRetryable, func() (*llms.ContentResponse, error) {
		return g.llm.GenerateContent(ctx, messages,
			llms.WithMaxTokens(int(req.MaxTokens)),
			llms.WithTemperature(temp),
		)
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", textgen.ErrNoChoices
	}

	choice := resp.Choices[0]
	g.metrics.RecordTokens(ctx, Backend, g.model, req.Purpose,
		tokenCount(choice.GenerationInfo, "PromptTokens"),
		tokenCount(choice.GenerationInfo, "CompletionTokens"))
	return choice.Content, nil
}

func tokenCount(info map[string]any, key string) int64 {
	switch v := info[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// isRetryable matches the errors Ollama returns while it is loading a model
// or has too many requests queued.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "server busy") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "429")
}
