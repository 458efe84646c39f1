// Package observability wires OpenTelemetry tracing and metrics around
// dispatches. A disabled Telemetry uses the global providers, which are
// no-ops unless the host application installed its own.
package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kart-io/alerthub"

// Config configures telemetry export.
type Config struct {
	Enabled        bool              `yaml:"enabled" json:"enabled"`
	ServiceName    string            `yaml:"service_name" json:"service_name"`
	ServiceVersion string            `yaml:"service_version" json:"service_version"`
	Environment    string            `yaml:"environment" json:"environment"`
	Endpoint       string            `yaml:"endpoint" json:"endpoint"`
	Headers        map[string]string `yaml:"headers" json:"headers"`
	Insecure       bool              `yaml:"insecure" json:"insecure"`
	SampleRate     float64           `yaml:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`
}

// DefaultConfig returns a disabled configuration with sensible values.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "alerthub",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// Telemetry records spans and metrics for dispatches.
type Telemetry struct {
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider

	alertsSent     metric.Int64Counter
	alertsFailed   metric.Int64Counter
	dispatches     metric.Int64Counter
	deliveryTiming metric.Float64Histogram
}

// New creates a Telemetry. When cfg.Enabled is set it installs an OTLP/HTTP
// trace exporter as the global tracer provider.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "alerthub"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 1.0
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(exporterOptions(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t, err := NewWithProviders(tp, otel.GetMeterProvider())
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	t.traceProvider = tp
	return t, nil
}

func exporterOptions(cfg Config) []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if strings.Contains(cfg.Endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	} else if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return opts
}

// Noop returns a Telemetry bound to the global providers.
func Noop() *Telemetry {
	t, err := NewWithProviders(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		return &Telemetry{tracer: otel.Tracer(instrumentationName)}
	}
	return t
}

// NewWithProviders builds a Telemetry on explicit providers.
func NewWithProviders(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	t := &Telemetry{
		tracer: tp.Tracer(instrumentationName, trace.WithSchemaURL(semconv.SchemaURL)),
		meter:  mp.Meter(instrumentationName, metric.WithSchemaURL(semconv.SchemaURL)),
	}
	var err error
	if t.alertsSent, err = t.meter.Int64Counter(
		"alerthub_alerts_sent_total",
		metric.WithDescription("Alerts delivered to a channel"),
	); err != nil {
		return nil, fmt.Errorf("create alerts_sent counter: %w", err)
	}
	if t.alertsFailed, err = t.meter.Int64Counter(
		"alerthub_alerts_failed_total",
		metric.WithDescription("Alerts a channel failed to deliver"),
	); err != nil {
		return nil, fmt.Errorf("create alerts_failed counter: %w", err)
	}
	if t.dispatches, err = t.meter.Int64Counter(
		"alerthub_dispatches_total",
		metric.WithDescription("Fan-out dispatches"),
	); err != nil {
		return nil, fmt.Errorf("create dispatches counter: %w", err)
	}
	if t.deliveryTiming, err = t.meter.Float64Histogram(
		"alerthub_delivery_duration_seconds",
		metric.WithDescription("Duration of a single channel delivery"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create delivery_duration histogram: %w", err)
	}
	return t, nil
}

// StartDispatch opens the span covering one fan-out.
func (t *Telemetry) StartDispatch(ctx context.Context, kind string, channels int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "alerthub.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("alerthub.kind", kind),
			attribute.Int("alerthub.channels.count", channels),
		),
	)
}

// StartDelivery opens the span covering one channel's send.
func (t *Telemetry) StartDelivery(ctx context.Context, channelType, kind string, index int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "alerthub.deliver",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("alerthub.channel.type", channelType),
			attribute.Int("alerthub.channel.index", index),
			attribute.String("alerthub.kind", kind),
		),
	)
}

// RecordDelivery records the outcome of one channel's send and closes span.
func (t *Telemetry) RecordDelivery(ctx context.Context, span trace.Span, channelType, kind string, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("channel", channelType),
		attribute.String("kind", kind),
	)
	if err != nil {
		t.alertsFailed.Add(ctx, 1, attrs)
		t.deliveryTiming.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.String("channel", channelType),
			attribute.String("status", "error"),
		))
		SetSpanError(span, err)
	} else {
		t.alertsSent.Add(ctx, 1, attrs)
		t.deliveryTiming.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.String("channel", channelType),
			attribute.String("status", "success"),
		))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// RecordDispatch closes the dispatch span with its tally.
func (t *Telemetry) RecordDispatch(ctx context.Context, span trace.Span, kind string, successful, failed int) {
	t.dispatches.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	span.SetAttributes(
		attribute.Int("alerthub.summary.successful", successful),
		attribute.Int("alerthub.summary.failed", failed),
	)
	if failed > 0 && successful == 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d channels failed", failed))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// SetSpanError marks span as failed with err.
func SetSpanError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Shutdown flushes and stops the exporter, if one was installed.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.traceProvider != nil {
		return t.traceProvider.Shutdown(ctx)
	}
	return nil
}
