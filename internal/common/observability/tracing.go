package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"template-resolver/internal/common/config"
)

// NewSpanExporter builds the OTLP gRPC exporter described by cfg. It
// returns a nil exporter when tracing is disabled.
func NewSpanExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter for %s: %w", cfg.Endpoint, err)
	}
	return exp, nil
}

// Options turns the tracing section into New options.
func Options(exp sdktrace.SpanExporter, cfg config.TracingConfig) []Option {
	opts := []Option{WithSampleRatio(cfg.SampleRatio)}
	if exp != nil {
		opts = append(opts, WithSpanExporter(exp))
	}
	return opts
}
