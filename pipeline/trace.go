/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "chainguard.touchup.pipeline"

// Span names.
const (
	spanRun        = "touchup.run"
	spanRepository = "touchup.repository"
)

func newTracer(tp oteltrace.TracerProvider) oteltrace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

func (d *Driver) startRepository(ctx context.Context, name, cloneURL string) (context.Context, oteltrace.Span) {
	return d.tracer.Start(ctx, spanRepository, oteltrace.WithAttributes(
		attribute.String("repository", name),
		attribute.String("clone_url", cloneURL),
	))
}

// endRepository records the outcome on span and ends it.
func endRepository(span oteltrace.Span, out Outcome) {
	span.SetAttributes(attribute.String("state", string(out.State)))
	if out.Reason != "" {
		span.SetAttributes(attribute.String("reason", out.Reason))
	}
	if out.Commit != "" {
		span.SetAttributes(attribute.String("commit_sha", out.Commit))
	}
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
