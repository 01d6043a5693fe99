package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"

	"github.com/gogama/httpx"
	"github.com/gogama/httpx-otel/httpxotel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	// Set up an OpenTelemetry tracer provider that pretty-prints every
	// finished span to stdout, and a W3C trace context propagator.
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		fail(err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			println(err.Error())
		}
	}()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// Start a test server which fails the first request with a 503
	// Service Unavailable error (retryable) and serves a success
	// response on the retry. Both attempts show up as child spans of
	// the one request span.
	var n int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			http.Error(w, "not yet", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("Success!"))
	}))
	defer server.Close()

	// Create the robust httpx.Client and install the OpenTelemetry
	// plugin.
	cl := &httpx.Client{
		HTTPDoer: server.Client(),
	}
	logger := log.New(os.Stdout, "httpxotel", log.Ldate|log.Ltime)
	httpxotel.OnClient(cl, httpxotel.Options{Logger: logger})

	// Start a parent span for the example application.
	ctx, span := tp.Tracer("example/normal").Start(context.Background(), "example/normal")
	defer span.End()

	// Use the robust httpx.Client to send a request, and print the
	// response.
	ctx = httpxotel.WithAttributes(ctx, attribute.String("example.scenario", "normal"))
	p, err := httpxotel.NewPlan(ctx, "GET", server.URL, nil,
		httpxotel.HeadersFromMap(map[string]string{"Accept": "text/plain"})...)
	if err != nil {
		fail(err)
	}

	e, err := cl.Do(p)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Status: %d\nBody:   %s\n", e.StatusCode(), e.Body)
}

func fail(err error) {
	println(err.Error())
	os.Exit(1)
}
