// Copyright 2024 The httpxotel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpxotel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

type spanNameKeyType int

var spanNameKey = new(spanNameKeyType)

type extraAttrKeyType int

var extraAttrKey = new(extraAttrKeyType)

// WithSpanName returns a context that overrides the default
// "<METHOD> <host>" name of the execution span for any request plan
// built from the returned context.
func WithSpanName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, spanNameKey, name)
}

func spanNameOverride(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(spanNameKey).(string)
	return name, ok && name != ""
}

// WithAttributes returns a context that adds attrs to the execution
// span of any request plan built from the returned context. The added
// attributes are appended after the ones the plugin computes; no
// deduplication is performed, so a repeated key resolves by the tracing
// SDK's own last-value-wins semantics.
func WithAttributes(ctx context.Context, attrs ...attribute.KeyValue) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	prev := extraAttributes(ctx)
	merged := make([]attribute.KeyValue, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, extraAttrKey, merged)
}

func extraAttributes(ctx context.Context) []attribute.KeyValue {
	attrs, _ := ctx.Value(extraAttrKey).([]attribute.KeyValue)
	return attrs
}
