// Package telemetry wraps the OpenTelemetry tracer used by the hot-update
// pipeline. It is a thin diagnostic sink: with no global tracer provider
// installed every span is a no-op.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies modkit spans in trace backends.
const tracerName = "modkit"

// Tracer returns the modkit tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartFileChange opens a span covering one file-change decision.
func StartFileChange(ctx context.Context, file string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "hmr.file_change",
		trace.WithAttributes(attribute.String("modkit.file", file)),
	)
}

// EndWithResult records the outcome of a file-change span and ends it.
// result is one of: config, env, full-reload, no-modules, no-update,
// update, error.
func EndWithResult(span trace.Span, result string, updates int, err error) {
	span.SetAttributes(
		attribute.String("modkit.result", result),
		attribute.Int("modkit.updates", updates),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
