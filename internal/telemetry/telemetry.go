// Package telemetry wires OpenTelemetry tracing for per-run and
// per-tool-call spans. No OTLP exporter is configured — spans are
// recorded in-process via the SDK's default no-op-safe tracer provider,
// leaving room for an exporter to be attached without touching call sites.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/EdibleTuber/mother"

// Init installs a basic SDK TracerProvider as the global provider so
// spans created via Tracer() are recorded rather than discarded.
func Init() func(context.Context) error {
	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

func Tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartRunSpan opens a span covering one AgentRunner.Run call.
func StartRunSpan(ctx context.Context, channelID string) (context.Context, oteltrace.Span) {
	return Tracer().Start(ctx, "agent.run", oteltrace.WithAttributes(
		attribute.String("channel_id", channelID),
	))
}

// StartToolSpan opens a span covering one tool execution.
func StartToolSpan(ctx context.Context, toolName string) (context.Context, oteltrace.Span) {
	return Tracer().Start(ctx, "tool."+toolName, oteltrace.WithAttributes(
		attribute.String("tool_name", toolName),
	))
}
