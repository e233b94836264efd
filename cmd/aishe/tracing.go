package main

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/abdhe/aishe-client/pkg/config"
)

// newTracer returns the tracer for the configured exporter and a shutdown
// function that flushes pending spans. A nil tracer means tracing is off.
func newTracer(exporter string, w io.Writer) (trace.Tracer, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch exporter {
	case "", config.TraceNone:
		return nil, noop, nil
	case config.TraceStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, noop, fmt.Errorf("tracing: stdout exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		return tp.Tracer("github.com/abdhe/aishe-client"), tp.Shutdown, nil
	}
	return nil, noop, fmt.Errorf("tracing: unknown exporter %q", exporter)
}
