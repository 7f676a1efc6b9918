package telemetry

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all OTel metric instruments for the remediation server.
type Metrics struct {
	// Tool surface metrics
	ToolRequestDuration metric.Float64Histogram // remediator.tool.request.duration
	ToolRequestCount    metric.Int64Counter     // remediator.tool.request.count

	// Pipeline domain metrics
	PipelineRunDuration metric.Float64Histogram // remediator.pipeline.run.duration
	RemediationsTotal   metric.Int64Counter     // remediator.remediations.total
	IncidentsResolved   metric.Int64Counter     // remediator.incidents.resolved
	ErrorsTotal         metric.Int64Counter     // remediator.errors.total
}

// NewMetrics creates all metric instruments from the global MeterProvider.
func NewMetrics() *Metrics {
	meter := otel.Meter(serviceName)
	m := &Metrics{}

	var err error

	m.ToolRequestDuration, err = meter.Float64Histogram(
		"remediator.tool.request.duration",
		metric.WithDescription("Duration of tool execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Error("failed to create remediator.tool.request.duration metric", "error", err)
	}

	m.ToolRequestCount, err = meter.Int64Counter(
		"remediator.tool.request.count",
		metric.WithDescription("Number of tool requests"),
	)
	if err != nil {
		slog.Error("failed to create remediator.tool.request.count metric", "error", err)
	}

	m.PipelineRunDuration, err = meter.Float64Histogram(
		"remediator.pipeline.run.duration",
		metric.WithDescription("Duration of full remediation pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Error("failed to create remediator.pipeline.run.duration metric", "error", err)
	}

	m.RemediationsTotal, err = meter.Int64Counter(
		"remediator.remediations.total",
		metric.WithDescription("Remediation actions executed, by action and status"),
	)
	if err != nil {
		slog.Error("failed to create remediator.remediations.total metric", "error", err)
	}

	m.IncidentsResolved, err = meter.Int64Counter(
		"remediator.incidents.resolved",
		metric.WithDescription("Incidents auto-resolved by the pipeline, by alert type"),
	)
	if err != nil {
		slog.Error("failed to create remediator.incidents.resolved metric", "error", err)
	}

	m.ErrorsTotal, err = meter.Int64Counter(
		"remediator.errors.total",
		metric.WithDescription("Total tool execution errors"),
	)
	if err != nil {
		slog.Error("failed to create remediator.errors.total metric", "error", err)
	}

	return m
}

// WithAttributes is a convenience wrapper for metric.WithAttributes.
func WithAttributes(attrs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(attrs...)
}
