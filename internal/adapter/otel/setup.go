// Package otel provides a stub for OpenTelemetry tracing setup.
// Spans and metrics are recorded against the global providers; exporter
// wiring lands with the hosted deployment.
package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc is called to flush and shut down the trace provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracer returns a no-op shutdown function until the OTLP exporter
// is wired in.
func InitTracer(serviceName string) ShutdownFunc {
	slog.Info("otel stub: InitTracer called", "service", serviceName)
	return func(_ context.Context) error {
		slog.Info("otel stub: shutdown called")
		return nil
	}
}
