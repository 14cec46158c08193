/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package backend selects and constructs a textgen.Interface by name.
package backend

import (
	"context"
	"fmt"
	"slices"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/retry"
	"chainguard.dev/touchup/agents/textgen"
	"chainguard.dev/touchup/agents/textgen/claudegen"
	"chainguard.dev/touchup/agents/textgen/googlegen"
	"chainguard.dev/touchup/agents/textgen/ollamagen"
	"chainguard.dev/touchup/agents/textgen/openaigen"
	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/tmc/langchaingo/llms/ollama"
	"google.golang.org/genai"
)

// Names of the supported backends.
const (
	Anthropic = claudegen.Backend
	OpenAI    = openaigen.Backend
	Gemini    = googlegen.Backend
	Ollama    = ollamagen.Backend
)

// Names lists the accepted values of Config.Name.
var Names = []string{Anthropic, OpenAI, Gemini, Ollama}

// Config describes which backend to build and how to reach it.
type Config struct {
	// Name is one of Names.
	Name string
	// Model overrides the backend's default model.
	Model string
	// APIKey authenticates hosted backends. Unused for Ollama and Vertex AI.
	APIKey string
	// BaseURL overrides the API endpoint (or the Ollama server URL).
	BaseURL string
	// VertexProject and VertexRegion route Anthropic and Gemini through
	// Vertex AI with application default credentials.
	VertexProject string
	VertexRegion  string
	// Temperature is the default sampling temperature; nil leaves the
	// backend default.
	Temperature *float64
	// MaxRetries is the number of retries for transient API errors.
	MaxRetries int
	// Metrics receives token usage; nil uses the global meter provider.
	Metrics *metrics.Generation
}

// New constructs the backend named by cfg.Name.
func New(ctx context.Context, cfg Config) (textgen.Interface, error) {
	if !slices.Contains(Names, cfg.Name) {
		return nil, fmt.Errorf("unknown backend %q (expected one of %v)", cfg.Name, Names)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewGeneration(nil)
	}
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.MaxRetries

	clog.FromContext(ctx).With("backend", cfg.Name).
		With("model", cfg.Model).
		With("vertex", cfg.VertexProject != "").
		Info("Configuring text generation backend")

	switch cfg.Name {
	case Anthropic:
		return newClaude(ctx, cfg, rc)
	case OpenAI:
		return newOpenAI(cfg, rc)
	case Gemini:
		return newGemini(ctx, cfg, rc)
	default:
		return newOllama(cfg, rc)
	}
}

func newClaude(ctx context.Context, cfg Config, rc retry.Config) (textgen.Interface, error) {
	opts := []anthropicoption.RequestOption{anthropicoption.WithMaxRetries(0)}
	switch {
	case cfg.VertexProject != "":
		if cfg.VertexRegion == "" {
			return nil, fmt.Errorf("vertex region is required with vertex project %q", cfg.VertexProject)
		}
		opts = append(opts, vertex.WithGoogleAuth(ctx, cfg.VertexRegion, cfg.VertexProject))
	case cfg.APIKey != "":
		opts = append(opts, anthropicoption.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(cfg.BaseURL))
	}

	genOpts := []claudegen.Option{claudegen.WithRetryConfig(rc), claudegen.WithMetrics(cfg.Metrics)}
	if cfg.Model != "" {
		genOpts = append(genOpts, claudegen.WithModel(cfg.Model))
	}
	if cfg.Temperature != nil {
		genOpts = append(genOpts, claudegen.WithTemperature(*cfg.Temperature))
	}
	return wrap(claudegen.New(anthropic.NewClient(opts...), genOpts...))
}

func newOpenAI(cfg Config, rc retry.Config) (textgen.Interface, error) {
	opts := []openaioption.RequestOption{openaioption.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, openaioption.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(cfg.BaseURL))
	}

	genOpts := []openaigen.Option{openaigen.WithRetryConfig(rc), openaigen.WithMetrics(cfg.Metrics)}
	if cfg.Model != "" {
		genOpts = append(genOpts, openaigen.WithModel(cfg.Model))
	}
	if cfg.Temperature != nil {
		genOpts = append(genOpts, openaigen.WithTemperature(*cfg.Temperature))
	}
	return wrap(openaigen.New(openai.NewClient(opts...), genOpts...))
}

func newGemini(ctx context.Context, cfg Config, rc retry.Config) (textgen.Interface, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.VertexProject != "" {
		cc = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.VertexProject,
			Location: cfg.VertexRegion,
		}
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	genOpts := []googlegen.Option{googlegen.WithRetryConfig(rc), googlegen.WithMetrics(cfg.Metrics)}
	if cfg.Model != "" {
		genOpts = append(genOpts, googlegen.WithModel(cfg.Model))
	}
	if cfg.Temperature != nil {
		genOpts = append(genOpts, googlegen.WithTemperature(*cfg.Temperature))
	}
	return wrap(googlegen.New(client, genOpts...))
}

func newOllama(cfg Config, rc retry.Config) (textgen.Interface, error) {
	model := cfg.Model
	if model == "" {
		model = ollamagen.DefaultModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	genOpts := []ollamagen.Option{ollamagen.WithRetryConfig(rc), ollamagen.WithMetrics(cfg.Metrics)}
	if cfg.Temperature != nil {
		genOpts = append(genOpts, ollamagen.WithTemperature(*cfg.Temperature))
	}
	return wrap(ollamagen.New(llm, model, genOpts...))
}

// wrap keeps a failed constructor from returning a non-nil interface holding
// a nil pointer.
func wrap[T textgen.Interface](gen T, err error) (textgen.Interface, error) {
	if err != nil {
		return nil, err
	}
	return gen, nil
}
