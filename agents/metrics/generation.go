/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records OpenTelemetry measurements for text-generation
// calls made by the pipeline.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is the instrumentation scope shared by every backend; the
// backend name is a dimension on the recorded metrics.
const MeterName = "chainguard.touchup.textgen"

// Generation provides counters for token usage and completion requests.
// Counters that fail to initialize degrade to no-ops.
type Generation struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	requests         metric.Int64Counter
	attrEnricher     AttributeEnricher
}

// NewGeneration creates the counters on the given provider. A nil provider
// uses the global one.
func NewGeneration(provider metric.MeterProvider) *Generation {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(MeterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("textgen.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", MeterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("textgen.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", MeterName)
		completionTokens = noop.Int64Counter{}
	}

	requests, err := meter.Int64Counter("textgen.requests",
		metric.WithDescription("The number of completion requests by outcome"),
		metric.WithUnit("{requests}"))
	if err != nil {
		slog.Warn("Failed to create request counter, metrics will be disabled", "error", err, "meter", MeterName)
		requests = noop.Int64Counter{}
	}

	return &Generation{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		requests:         requests,
		attrEnricher:     ContextEnricher,
	}
}

func (m *Generation) attrs(ctx context.Context, backend, model, purpose string, extra ...attribute.KeyValue) []attribute.KeyValue {
	base := []attribute.KeyValue{
		attribute.String("backend", backend),
		attribute.String("model", model),
		attribute.String("purpose", purpose),
	}
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return append(base, extra...)
}

// RecordTokens records prompt and completion token usage for one call.
func (m *Generation) RecordTokens(ctx context.Context, backend, model, purpose string, promptTokens, completionTokens int64) {
	attrs := metric.WithAttributes(m.attrs(ctx, backend, model, purpose)...)
	m.promptTokens.Add(ctx, promptTokens, attrs)
	m.completionTokens.Add(ctx, completionTokens, attrs)
}

// RecordRequest counts one completion request and whether it failed.
func (m *Generation) RecordRequest(ctx context.Context, backend, model, purpose string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(m.attrs(ctx, backend, model, purpose, attribute.String("outcome", outcome))...))
}
