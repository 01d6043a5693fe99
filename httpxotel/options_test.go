// Copyright 2024 The httpxotel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpxotel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestWithSpanName(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		name, ok := spanNameOverride(context.Background())

		assert.False(t, ok)
		assert.Equal(t, "", name)
	})
	t.Run("empty name is no override", func(t *testing.T) {
		ctx := WithSpanName(context.Background(), "")

		_, ok := spanNameOverride(ctx)

		assert.False(t, ok)
	})
	t.Run("set", func(t *testing.T) {
		ctx := WithSpanName(context.Background(), "fetch thing")

		name, ok := spanNameOverride(ctx)

		assert.True(t, ok)
		assert.Equal(t, "fetch thing", name)
	})
	t.Run("inner value wins", func(t *testing.T) {
		ctx := WithSpanName(context.Background(), "outer")
		ctx = WithSpanName(ctx, "inner")

		name, _ := spanNameOverride(ctx)

		assert.Equal(t, "inner", name)
	})
}

func TestWithAttributes(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, extraAttributes(context.Background()))
	})
	t.Run("no attributes is a no-op", func(t *testing.T) {
		ctx := context.Background()

		assert.Equal(t, ctx, WithAttributes(ctx))
	})
	t.Run("set", func(t *testing.T) {
		ctx := WithAttributes(context.Background(), attribute.String("thing.id", "123"))

		assert.Equal(t, []attribute.KeyValue{attribute.String("thing.id", "123")},
			extraAttributes(ctx))
	})
	t.Run("accumulates in order", func(t *testing.T) {
		ctx := WithAttributes(context.Background(), attribute.String("a", "1"))
		ctx = WithAttributes(ctx, attribute.String("b", "2"), attribute.String("a", "3"))

		assert.Equal(t, []attribute.KeyValue{
			attribute.String("a", "1"),
			attribute.String("b", "2"),
			attribute.String("a", "3"),
		}, extraAttributes(ctx))
	})
	t.Run("does not mutate outer context", func(t *testing.T) {
		outer := WithAttributes(context.Background(), attribute.String("a", "1"))
		_ = WithAttributes(outer, attribute.String("b", "2"))

		assert.Len(t, extraAttributes(outer), 1)
	})
}
