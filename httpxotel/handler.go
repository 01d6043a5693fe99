// Copyright 2024 The httpxotel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpxotel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"strings"

	"github.com/gogama/httpx"
	"github.com/gogama/httpx/request"
	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

type handler struct {
	tracer      trace.Tracer
	propagator  propagation.TextMapPropagator
	logger      Logger
	clientTrace bool
}

func (h *handler) Handle(evt httpx.Event, e *request.Execution) {
	switch evt {
	case httpx.BeforeExecutionStart:
		h.beforeExecutionStart(e)
	case httpx.BeforeAttempt:
		h.beforeAttempt(e)
	case httpx.AfterAttempt:
		h.afterAttempt(e)
	case httpx.AfterPlanTimeout:
		h.afterPlanTimeout(e)
	case httpx.AfterExecutionEnd:
		h.afterExecutionEnd(e)
	default:
		panic("httpxotel: unsupported event")
	}
}

// beforeExecutionStart opens the execution span, the client span
// representing the whole request as the caller sees it. The context the
// plan carried on entry is saved so it can be restored as current once
// the span ends.
func (h *handler) beforeExecutionStart(e *request.Execution) {
	parent := e.Plan.Context()
	ctx, span := h.tracer.Start(parent, spanName(parent, e.Plan),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(spanAttributes(parent, e.Plan)...))

	es := executionStateOf(e)
	if es == nil {
		es = &executionState{}
		e.SetValue(executionStateKey, es)
	}
	es.parent = parent
	es.span = span

	e.Plan = e.Plan.WithContext(ctx)
}

func (h *handler) afterExecutionEnd(e *request.Execution) {
	es := executionStateOf(e)
	if es == nil || es.span == nil {
		return
	}
	if es.ended || !spanIsCurrent(e.Plan.Context(), es.span) {
		logSpanNotCurrent(h.logger, httpx.AfterExecutionEnd, authority(e.Plan))
		return
	}

	es.span.SetAttributes(
		attribute.Int("httpx.attempts", e.Attempt+1),
		attribute.Int("httpx.waves", e.Wave+1),
	)
	endSpan(es.span, e.Response, e.Err)
	es.ended = true
	e.Plan = e.Plan.WithContext(es.parent)
}

// beforeAttempt opens one child span per wire attempt and injects trace
// context propagation fields into the outgoing request headers, so the
// downstream service continues the trace from the attempt that actually
// reached it.
func (h *handler) beforeAttempt(e *request.Execution) {
	parent := e.Request.Context()
	ctx, span := h.tracer.Start(parent, fmt.Sprintf("attempt %d", e.Attempt),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attemptAttributes(e)...))
	if h.clientTrace {
		ctx = httptrace.WithClientTrace(ctx, otelhttptrace.NewClientTrace(ctx))
	}

	if e.Request.Header == nil {
		e.Request.Header = make(http.Header)
	}
	h.propagator.Inject(ctx, propagation.HeaderCarrier(e.Request.Header))

	putAttemptState(e, attemptState{parent: parent, span: span})
	e.Request = e.Request.WithContext(ctx)
}

func (h *handler) afterAttempt(e *request.Execution) {
	cur := trace.SpanFromContext(e.Request.Context())
	if !cur.SpanContext().IsValid() {
		return
	}

	as, err := getAttemptState(e)
	if err != nil {
		panic(err)
	}
	if as.span == nil {
		return
	}
	if as.ended || !spanIsCurrent(e.Request.Context(), as.span) {
		logSpanNotCurrent(h.logger, httpx.AfterAttempt, authority(e.Plan))
		return
	}

	endSpan(as.span, e.Response, e.Err)
	as.ended = true
	putAttemptState(e, as)
	e.Request = e.Request.WithContext(as.parent)
}

func (h *handler) afterPlanTimeout(e *request.Execution) {
	es := executionStateOf(e)
	if es == nil || es.span == nil {
		return
	}
	es.span.AddEvent("plan timeout")
}

// endSpan translates the outcome of a request or attempt into span
// status and attributes and closes the span. A transport error wins
// over any HTTP-level classification of the response.
func endSpan(span trace.Span, resp *http.Response, err error) {
	if resp != nil {
		recordResponse(span, resp)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func recordResponse(span trace.Span, resp *http.Response) {
	span.SetAttributes(semconv.HTTPStatusCode(resp.StatusCode))
	if n, ok := responseContentLength(resp.Header); ok {
		span.SetAttributes(semconv.HTTPResponseContentLength(int(n)))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "")
	}
}

// responseContentLength finds the Content-Length header by
// case-insensitive name search and parses it as a whole, non-negative
// integer. A missing or malformed value is not an error, the attribute
// is simply skipped.
func responseContentLength(h http.Header) (int64, bool) {
	for name, values := range h {
		if !strings.EqualFold(name, "Content-Length") || len(values) == 0 {
			continue
		}
		n, err := strconv.ParseInt(values[0], 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// spanIsCurrent reports whether span is still the current span on ctx.
// A nested instrumented call inside the transport can advance the
// current span out from under this handler; ending a span that is no
// longer current would corrupt the nested call's span state, so the
// close and restore steps fire only while this holds.
func spanIsCurrent(ctx context.Context, span trace.Span) bool {
	return trace.SpanFromContext(ctx).SpanContext().Equal(span.SpanContext())
}

func spanName(ctx context.Context, p *request.Plan) string {
	if name, ok := spanNameOverride(ctx); ok {
		return name
	}
	return method(p) + " " + authority(p)
}

func spanAttributes(ctx context.Context, p *request.Plan) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPMethod(method(p)),
		semconv.HTTPURL(rawURL(p)),
		semconv.NetPeerName(peerName(p)),
	}
	return append(attrs, extraAttributes(ctx)...)
}

func attemptAttributes(e *request.Execution) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.HTTPMethod(strings.ToUpper(e.Request.Method)),
		semconv.HTTPURL(e.Request.URL.String()),
		attribute.Int("httpx.attempt", e.Attempt),
		attribute.Int("httpx.wave", e.Wave),
	}
}

func method(p *request.Plan) string {
	if p.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(p.Method)
}

// authority returns the host[:port] component the request is addressed
// to, used in the default span name.
func authority(p *request.Plan) string {
	if p.URL != nil && p.URL.Host != "" {
		return p.URL.Host
	}
	return p.Host
}

// peerName returns the logical peer host name, without any port. The
// plan's Host field, when set, overrides the URL just as it does on the
// wire.
func peerName(p *request.Plan) string {
	if p.Host != "" {
		return p.Host
	}
	if p.URL != nil {
		return p.URL.Hostname()
	}
	return ""
}

func rawURL(p *request.Plan) string {
	if p.URL == nil {
		return ""
	}
	return p.URL.String()
}

type executionStateKeyType int

var executionStateKey = new(executionStateKeyType)

type executionState struct {
	parent context.Context
	span   trace.Span
	ended  bool
	as     []attemptState
}

type attemptState struct {
	parent context.Context
	span   trace.Span
	ended  bool
}

func executionStateOf(e *request.Execution) *executionState {
	es, _ := e.Value(executionStateKey).(*executionState)
	return es
}

func putAttemptState(e *request.Execution, as attemptState) {
	es := executionStateOf(e)
	if es == nil {
		es = &executionState{}
		e.SetValue(executionStateKey, es)
	}
	if len(es.as) == e.Attempt {
		es.as = append(es.as, attemptState{})
	} else if len(es.as) < e.Attempt {
		tmp := make([]attemptState, e.Attempt+1)
		copy(tmp, es.as)
		es.as = tmp
	}
	es.as[e.Attempt] = as
}

func getAttemptState(e *request.Execution) (attemptState, error) {
	es := executionStateOf(e)
	if es == nil {
		return attemptState{}, errors.New("httpxotel: no execution state")
	}
	if len(es.as) <= e.Attempt {
		return attemptState{}, fmt.Errorf("httpxotel: no attempt state %d", e.Attempt)
	}
	return es.as[e.Attempt], nil
}

const spanNotCurrentF = "httpxotel: [WARN] Span is no longer current in event %s (%s), leaving it open"

func logSpanNotCurrent(l Logger, evt httpx.Event, host string) {
	l.Printf(spanNotCurrentF, evt.Name(), host)
}
