// Copyright 2024 The httpxotel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpxotel adds OpenTelemetry tracing to the httpx library's
robust HTTP client. See https://github.com/gogama/httpx.

Use the OnClient function to install OpenTelemetry support in any
httpx.Client:

	cl := &httpx.Client{}                       // Create robust HTTP client
	httpxotel.OnClient(cl, httpxotel.Options{}) // Install OpenTelemetry plugin

Every request plan the client executes is then wrapped in a client span
named "<METHOD> <host>", with one child span per wire attempt, and trace
context headers (typically W3C traceparent/tracestate) are injected into
each outgoing attempt. When creating a request plan for the client to
execute, use a context carrying the parent span:

	pl, err := request.NewPlanWithContext( // Make plan using span-carrying context
		ctx,
		"GET",
		"https://www.example.com/things/123",
		nil,
	)
	e, err := cl.Do(pl)                    // Send request and read response

	// If the context carried a sampled span, a "GET www.example.com"
	// client span for the HTTP request has now been recorded.

The span name and attributes may be adjusted per request with
WithSpanName and WithAttributes:

	ctx = httpxotel.WithSpanName(ctx, "fetch thing")
	ctx = httpxotel.WithAttributes(ctx, attribute.String("thing.id", "123"))

Use the OnHandlers function to install OpenTelemetry support directly
onto an httpx.HandlerGroup.
*/
package httpxotel
