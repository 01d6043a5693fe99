// Copyright 2024 The httpxotel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpxotel

import (
	"context"

	"github.com/gogama/httpx"
	"github.com/gogama/httpx/request"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	nilClientMsg       = "httpxotel: nil client"
	nilHandlerGroupMsg = "httpxotel: nil handler group"

	tracerName = "github.com/gogama/httpx-otel/httpxotel"
)

// Options configures the OpenTelemetry plugin. The zero value is valid
// and resolves every field to its default.
type Options struct {
	// TracerProvider supplies the tracer used to start spans. If nil,
	// the global tracer provider is used.
	TracerProvider trace.TracerProvider

	// Propagator injects trace context propagation fields, typically
	// the W3C traceparent/tracestate pair, into the headers of every
	// outgoing request attempt. If nil, the global text map propagator
	// is used.
	Propagator propagation.TextMapPropagator

	// Logger is used to log issues the plugin encounters. The plugin
	// does not produce any log messages in the ordinary course of
	// operation and the logger is intended as a "just in case"
	// debugging aid. If nil, messages are discarded as with NopLogger.
	Logger Logger

	// ClientTrace adds connection-level detail spans (DNS lookup,
	// connect, TLS handshake, first response byte) to every request
	// attempt using the otelhttptrace instrumentation.
	ClientTrace bool
}

func (o Options) newHandler() *handler {
	tp := o.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	prop := o.Propagator
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}
	logger := o.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	return &handler{
		tracer:      tp.Tracer(tracerName),
		propagator:  prop,
		logger:      logger,
		clientTrace: o.ClientTrace,
	}
}

// OnClient installs OpenTelemetry support onto an httpx Client.
//
// If client's current handler group is nil, OnClient creates a new
// handler group, sets it as client's current handler group, and
// proceeds to install OpenTelemetry support into the handler group. If
// the handler group is not nil, OnClient adds OpenTelemetry support
// into the existing handler group. (Be aware of this behavior if you
// are sharing a handler group among multiple clients.)
//
// Every request plan the client executes is wrapped in a client span,
// with one child span per wire attempt, and trace context is injected
// into the headers of each attempt. Pass the zero Options value to use
// the global tracer provider and propagator.
func OnClient(client *httpx.Client, opts Options) *httpx.Client {
	if client == nil {
		panic(nilClientMsg)
	}

	handlers := client.Handlers
	if handlers == nil {
		handlers = &httpx.HandlerGroup{}
		client.Handlers = handlers
	}

	OnHandlers(handlers, opts)

	return client
}

// OnHandlers installs OpenTelemetry support onto an httpx HandlerGroup.
//
// The handler group may not be nil - if it is, a panic will ensue.
func OnHandlers(handlers *httpx.HandlerGroup, opts Options) *httpx.HandlerGroup {
	if handlers == nil {
		panic(nilHandlerGroupMsg)
	}

	handler := opts.newHandler()
	handlers.PushBack(httpx.BeforeExecutionStart, handler)
	handlers.PushBack(httpx.BeforeAttempt, handler)
	handlers.PushBack(httpx.AfterAttempt, handler)
	handlers.PushBack(httpx.AfterPlanTimeout, handler)
	handlers.PushBack(httpx.AfterExecutionEnd, handler)

	return handlers
}

// NewPlan builds an httpx request plan carrying headers given in the
// ordered pair-list form. Use HeadersFromMap to supply headers held in
// a map. Executing the plan with an instrumented client returns exactly
// what the uninstrumented client would return; the plugin only adds
// span state and propagation headers on the side.
func NewPlan(ctx context.Context, method, url string, body []byte, headers ...HeaderPair) (*request.Plan, error) {
	p, err := request.NewPlanWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if len(headers) > 0 {
		p.Header = CanonicalHeader(headers)
	}
	return p, nil
}
