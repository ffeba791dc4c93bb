package telemetry

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/rattle/internal/core/ports"
	"go.trai.ch/zerr"
)

// ServiceName identifies rattle in exported traces.
const ServiceName = "rattle"

const timeResolution = time.Microsecond

// ProviderOptions configures the tracer provider.
type ProviderOptions struct {
	// Export receives the finished spans as JSON when set.
	Export io.Writer

	// Bridge reports finished spans when set.
	Bridge *Bridge
}

// Provider owns the configured tracer provider.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup builds a tracer provider from opts and installs it as the global provider.
func Setup(opts ProviderOptions) (*Provider, error) {
	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if opts.Export != nil {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(opts.Export), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, zerr.Wrap(err, "failed to create trace exporter")
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	if opts.Bridge != nil {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(opts.Bridge))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// TracerProvider returns the underlying provider.
func (p *Provider) TracerProvider() *sdktrace.TracerProvider {
	return p.tp
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return errors.Join(p.tp.ForceFlush(ctx), p.tp.Shutdown(ctx))
}

// Exporter implements ports.TraceExporter by installing a global provider.
type Exporter struct{}

// Install sets up a provider exporting to w and bridging to log when log is set.
func (Exporter) Install(w io.Writer, log ports.Logger) (func(context.Context) error, error) {
	opts := ProviderOptions{Export: w}
	if log != nil {
		opts.Bridge = NewBridge(log)
	}
	p, err := Setup(opts)
	if err != nil {
		return nil, err
	}
	return p.Shutdown, nil
}
