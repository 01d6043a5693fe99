// Copyright 2024 The httpxotel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpxotel

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/propagation"
)

// HeaderPair is one name-value pair in the ordered pair-list header
// form. Repeated names are permitted.
type HeaderPair struct {
	Name  string
	Value string
}

// HeadersFromMap normalizes the unordered map header form into the
// ordered pair-list form. Pairs are sorted by name so equivalent maps
// always normalize to the same list.
func HeadersFromMap(m map[string]string) []HeaderPair {
	pairs := make([]HeaderPair, 0, len(m))
	for name, value := range m {
		pairs = append(pairs, HeaderPair{Name: name, Value: value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

// CanonicalHeader converts the ordered pair-list header form into a
// net/http header collection. Values of repeated names keep their list
// order. No deduplication is performed.
func CanonicalHeader(pairs []HeaderPair) http.Header {
	h := make(http.Header, len(pairs))
	for _, p := range pairs {
		h.Add(p.Name, p.Value)
	}
	return h
}

// InjectHeaders returns a copy of pairs with trace context propagation
// fields for the span in ctx added by propagator. A field whose name is
// already present is overwritten in place, matching the behavior of
// propagation.HeaderCarrier; fields with new names are appended after
// the existing pairs. The input slice is not modified.
func InjectHeaders(ctx context.Context, propagator propagation.TextMapPropagator, pairs []HeaderPair) []HeaderPair {
	c := &pairCarrier{pairs: append([]HeaderPair(nil), pairs...)}
	propagator.Inject(ctx, c)
	return c.pairs
}

// pairCarrier adapts the ordered pair-list header form to the
// propagation codec's carrier interface.
type pairCarrier struct {
	pairs []HeaderPair
}

func (c *pairCarrier) Get(key string) string {
	for _, p := range c.pairs {
		if strings.EqualFold(p.Name, key) {
			return p.Value
		}
	}
	return ""
}

func (c *pairCarrier) Set(key, value string) {
	for i, p := range c.pairs {
		if strings.EqualFold(p.Name, key) {
			c.pairs[i].Value = value
			return
		}
	}
	c.pairs = append(c.pairs, HeaderPair{Name: key, Value: value})
}

func (c *pairCarrier) Keys() []string {
	keys := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		keys[i] = p.Name
	}
	return keys
}
