// Package telemetry wires optional OpenTelemetry tracing and metrics around
// a bolt.Session's send/fetch calls (spec SPEC_FULL §4.3). It implements
// bolt.Instrumenter; attaching nothing leaves the session's hot path
// untouched, since otel's own global providers default to no-ops.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/orneryd/boltwire/pkg/bolt"
)

// Instrumentation implements bolt.Instrumenter on top of an OpenTelemetry
// tracer and meter. New builds it over otel's global (no-op by default)
// providers, so it is safe to use even without a configured SDK; the zero
// value holds a nil tracer and nil counters and is not usable.
type Instrumentation struct {
	tracer         trace.Tracer
	bytesSent      metric.Int64Counter
	recordsFetched metric.Int64Counter
}

// New builds an Instrumentation using the named tracer/meter, pulling the
// global providers (otel.Tracer/otel.Meter), which are no-ops until an SDK
// is registered via otel.SetTracerProvider/SetMeterProvider.
func New(instrumentationName string) (*Instrumentation, error) {
	meter := otel.Meter(instrumentationName)
	bytesSent, err := meter.Int64Counter("boltwire.bytes_sent",
		metric.WithDescription("bytes written to the Bolt connection"))
	if err != nil {
		return nil, err
	}
	recordsFetched, err := meter.Int64Counter("boltwire.records_fetched",
		metric.WithDescription("RECORD messages demultiplexed"))
	if err != nil {
		return nil, err
	}
	return &Instrumentation{
		tracer:         otel.Tracer(instrumentationName),
		bytesSent:      bytesSent,
		recordsFetched: recordsFetched,
	}, nil
}

// Attach installs this instrumentation on s.
func (i *Instrumentation) Attach(s *bolt.Session) { s.Instrument(i) }

// OnSend implements bolt.Instrumenter.
func (i *Instrumentation) OnSend(n int) {
	i.bytesSent.Add(context.Background(), int64(n))
}

// OnFetch implements bolt.Instrumenter.
func (i *Instrumentation) OnFetch(sig byte) {
	if sig == 0x71 { // RECORD; avoid importing packstream just for one constant
		i.recordsFetched.Add(context.Background(), 1)
	}
}

// WrapSend implements bolt.Instrumenter, wrapping fn in a "bolt.send" span.
func (i *Instrumentation) WrapSend(ctx context.Context, fn func() error) error {
	_, span := i.tracer.Start(ctx, "bolt.send")
	defer span.End()
	err := fn()
	if err != nil {
		span.SetAttributes(attribute.String("error", err.Error()))
	}
	return err
}

// WrapFetch implements bolt.Instrumenter, wrapping fn in a "bolt.fetch_one" span.
func (i *Instrumentation) WrapFetch(ctx context.Context, fn func() error) error {
	_, span := i.tracer.Start(ctx, "bolt.fetch_one")
	defer span.End()
	err := fn()
	if err != nil {
		span.SetAttributes(attribute.String("error", err.Error()))
	}
	return err
}
