// Package observability wires OpenTelemetry tracing to an OTLP collector.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for the OTLP trace exporter.
type Config struct {
	// Endpoint is the collector's OTLP HTTP endpoint, host:port.
	Endpoint string
	// Environment tags spans with the deployment environment.
	Environment string
	// ServiceName is the service name shown in the APM backend.
	ServiceName string
}

// DefaultEndpoint is the conventional local collector OTLP HTTP endpoint.
const DefaultEndpoint = "localhost:4318"

// Setup registers an OTLP span exporter with Genkit's TracerProvider, so
// ingest and chat spans share one trace pipeline. An unreachable collector
// disables tracing instead of failing startup.
//
// Returns a shutdown function that flushes pending spans.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	// Genkit's TracerProvider reads the service identity from the
	// standard OTEL environment variables.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		slog.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}
