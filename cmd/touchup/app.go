/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"chainguard.dev/touchup/agents/metrics"
	"chainguard.dev/touchup/agents/textgen/backend"
	"chainguard.dev/touchup/pipeline"
	"chainguard.dev/touchup/repos/clonemanager"
	"chainguard.dev/touchup/repos/githubsource"
	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/oauth2"
)

// jobName groups pushed metrics on the Pushgateway.
const jobName = "touchup"

type runner interface {
	Run(ctx context.Context) (pipeline.Report, error)
}

// app runs the pipeline and publishes what happened.
type app struct {
	driver   runner
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
	pushURL  string
	// recordPath receives a YAML run record after every successful run.
	recordPath string
	out        io.Writer
}

func newApp(ctx context.Context, cfg config, out io.Writer) (*app, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("creating metrics exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})

	src, err := githubsource.New(ctx, ts,
		githubsource.WithAccount(cfg.GitHubAccount),
		githubsource.WithEnterpriseURL(cfg.GitHubAPIURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository source: %w", err)
	}

	mgrOpts := []clonemanager.Option{
		clonemanager.WithTokenSource(ts),
		clonemanager.WithIdentity(cfg.AuthorName, cfg.AuthorEmail),
	}
	if cfg.SigningKeyFile != "" {
		signer, err := loadSigner(cfg.SigningKeyFile)
		if err != nil {
			return nil, err
		}
		mgrOpts = append(mgrOpts, clonemanager.WithSigner(signer))
	}
	mgr, err := clonemanager.New(ctx, cfg.WorkDir, mgrOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating clone manager: %w", err)
	}

	bcfg := cfg.backendConfig()
	bcfg.Metrics = metrics.NewGeneration(provider)
	gen, err := backend.New(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", cfg.Backend, err)
	}

	opts := []pipeline.Option{pipeline.WithMetrics(pipeline.NewMetrics(reg))}
	if cfg.Summarize {
		opts = append(opts, pipeline.WithSummarizer(gen))
	}
	driver, err := pipeline.NewDriver(cfg.pipelineConfig(), src, synchronizer(mgr), gen, opts...)
	if err != nil {
		return nil, err
	}

	return &app{
		driver:     driver,
		registry:   reg,
		provider:   provider,
		pushURL:    cfg.PushgatewayURL,
		recordPath: cfg.ReportFile,
		out:        out,
	}, nil
}

func loadSigner(path string) (git.Signer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening signing key: %w", err)
	}
	defer f.Close()
	return clonemanager.NewPGPSigner(f)
}

// synchronizer adapts the clone manager to the pipeline. A failed sync must
// return a nil interface, not a nil *Workspace.
func synchronizer(mgr *clonemanager.Manager) pipeline.Synchronizer {
	return pipeline.SynchronizerFunc(func(ctx context.Context, cloneURL string) (pipeline.Workspace, error) {
		ws, err := mgr.Sync(ctx, cloneURL)
		if err != nil {
			return nil, err
		}
		return ws, nil
	})
}

// serve runs once when interval is zero. Otherwise it runs on every tick
// until ctx is done, logging failed runs and trying again at the next tick.
func (a *app) serve(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return a.runOnce(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := a.runOnce(ctx); err != nil {
			clog.ErrorContextf(ctx, "Run failed, retrying in %v: %v", interval, err)
		}
		select {
		case <-ctx.Done():
			clog.InfoContextf(ctx, "Shutting down: %v", context.Cause(ctx))
			return nil
		case <-ticker.C:
		}
	}
}

func (a *app) runOnce(ctx context.Context) error {
	rep, err := a.driver.Run(ctx)
	a.pushMetrics(ctx)
	if err != nil {
		return err
	}
	if err := writeReport(a.out, rep); err != nil {
		clog.WarnContextf(ctx, "Writing report: %v", err)
	}
	if a.recordPath != "" {
		if err := writeRecord(a.recordPath, rep, time.Now()); err != nil {
			clog.WarnContextf(ctx, "Recording run: %v", err)
		}
	}
	return nil
}

func (a *app) pushMetrics(ctx context.Context) {
	if a.pushURL == "" || a.registry == nil {
		return
	}
	if err := push.New(a.pushURL, jobName).Gatherer(a.registry).Push(); err != nil {
		clog.WarnContextf(ctx, "Pushing metrics to %s: %v", a.pushURL, err)
	}
}

func (a *app) close(ctx context.Context) {
	if a.provider == nil {
		return
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		clog.WarnContextf(ctx, "Shutting down meter provider: %v", err)
	}
	a.provider = nil
}
