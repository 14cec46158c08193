/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
)

// AttributeEnricher enriches metric attributes with additional context.
// The enricher receives base attributes (backend, model, purpose) and returns
// an enriched set.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

type attrsKey struct{}

// WithAttributes returns a context carrying attrs, which ContextEnricher
// appends to every measurement recorded under that context.
func WithAttributes(ctx context.Context, attrs ...attribute.KeyValue) context.Context {
	existing, _ := ctx.Value(attrsKey{}).([]attribute.KeyValue)
	return context.WithValue(ctx, attrsKey{}, append(slices.Clone(existing), attrs...))
}

// ContextEnricher appends the attributes stored with WithAttributes.
func ContextEnricher(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs, _ := ctx.Value(attrsKey{}).([]attribute.KeyValue)
	return append(baseAttrs, attrs...)
}
