/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs touchup: it asks a text-generation model to polish the
// README of every public repository of a GitHub account and pushes the edits
// that pass the acceptance gate.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/touchup/agents/textgen/backend"
	"chainguard.dev/touchup/pipeline"
	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	GitHubToken   string `env:"GITHUB_TOKEN,required"`
	GitHubAccount string `env:"GITHUB_ACCOUNT"`
	GitHubAPIURL  string `env:"GITHUB_API_URL"`

	WorkDir    string `env:"WORK_DIR,default=./repos"`
	TargetFile string `env:"TARGET_FILE,default=README.md"`

	GenerationTokenBudget int64    `env:"GENERATION_TOKEN_BUDGET,default=500"`
	SummaryTokenBudget    int64    `env:"SUMMARY_TOKEN_BUDGET,default=50"`
	Temperature           *float64 `env:"SAMPLING_TEMPERATURE,noinit"`
	AcceptanceLengthRatio float64  `env:"ACCEPTANCE_LENGTH_RATIO,default=0.8"`
	Summarize             bool     `env:"SUMMARIZE,default=true"`

	Backend        string `env:"BACKEND,default=openai"`
	Model          string `env:"MODEL"`
	BackendAPIKey  string `env:"BACKEND_API_KEY"`
	BackendBaseURL string `env:"BACKEND_BASE_URL"`
	VertexProject  string `env:"VERTEX_PROJECT"`
	VertexRegion   string `env:"VERTEX_REGION"`
	MaxRetries     int    `env:"GENERATION_MAX_RETRIES,default=0"`

	AuthorName  string `env:"COMMIT_AUTHOR_NAME,default=touchup-bot"`
	AuthorEmail string `env:"COMMIT_AUTHOR_EMAIL"`
	// SigningKeyFile holds an armored, unencrypted OpenPGP private key.
	SigningKeyFile string `env:"COMMIT_SIGNING_KEY_FILE"`

	// Interval of zero runs once and exits.
	Interval       time.Duration `env:"INTERVAL,default=0"`
	PushgatewayURL string        `env:"PUSHGATEWAY_URL"`
	ReportFile     string        `env:"REPORT_FILE"`
}

func (c config) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		TargetFile:            c.TargetFile,
		GenerationTokenBudget: c.GenerationTokenBudget,
		SummaryTokenBudget:    c.SummaryTokenBudget,
		Temperature:           c.Temperature,
		AcceptanceLengthRatio: c.AcceptanceLengthRatio,
	}
}

func (c config) backendConfig() backend.Config {
	return backend.Config{
		Name:          c.Backend,
		Model:         c.Model,
		APIKey:        c.BackendAPIKey,
		BaseURL:       c.BackendBaseURL,
		VertexProject: c.VertexProject,
		VertexRegion:  c.VertexRegion,
		Temperature:   c.Temperature,
		MaxRetries:    c.MaxRetries,
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		clog.FatalContextf(ctx, "setting up: %v", err)
	}
	defer a.close(context.WithoutCancel(ctx))

	if cfg.Interval > 0 {
		clog.InfoContextf(ctx, "Running every %v", cfg.Interval)
	}
	if err := a.serve(ctx, cfg.Interval); err != nil {
		a.close(context.WithoutCancel(ctx))
		clog.FatalContextf(ctx, "run failed: %v", err)
	}
}
