package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/noctsys/noct/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// tracing owns the SDK provider installed as the global tracer provider
// and the provider it replaced.
type tracing struct {
	tp   *sdktrace.TracerProvider
	prev trace.TracerProvider
}

// startTracing exports manifest spans over OTLP/gRPC to c.Addr.
func startTracing(ctx context.Context, c Tracing, app AppInfo) (*tracing, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.Addr)}
	if c.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.Ratio))),
		sdktrace.WithResource(sdkresource.NewSchemaless(
			semconv.ServiceNameKey.String(app.Name),
			semconv.ServiceVersionKey.String(app.Version),
		)),
		sdktrace.WithBatcher(exp),
	)
	t := &tracing{tp: tp, prev: otel.GetTracerProvider()}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	log.Infow("msg", "tracing enabled", "addr", c.Addr, "ratio", c.Ratio)
	return t, nil
}

// shutdown flushes buffered spans and restores the previous provider.
func (t *tracing) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	defer otel.SetTracerProvider(t.prev)
	if err := t.tp.ForceFlush(ctx); err != nil {
		log.Errorf("failed to flush tracer provider: %v", err)
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
