// Package telemetry installs the OpenTelemetry tracer provider for the
// enigma command. Spans are written as JSON to a writer, normally stderr.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported on every span.
const ServiceName = "enigma"

// Config selects where spans go.
type Config struct {
	// Enabled installs a provider. When false Setup does nothing and spans
	// stay no-ops.
	Enabled bool

	// Output defaults to os.Stderr.
	Output io.Writer

	// Pretty indents each exported span.
	Pretty bool

	Version string
}

// Setup installs a global tracer provider and returns a function that
// flushes and stops it. The shutdown function is never nil.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if ctx == nil {
		return noop, errors.New("telemetry: nil context")
	}
	if !cfg.Enabled {
		return noop, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if cfg.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return noop, fmt.Errorf("create trace exporter: %w", err)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	res := resource.NewWithAttributes("",
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
