package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/sangkips/receiptflow-api/internal/application/service"

var tracer = otel.Tracer(instrumentationName)

// Option customises service construction.
type Option func(*options)

type options struct {
	logger *zap.Logger
	meter  metric.Meter
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeter overrides the meter used for pipeline counters (defaults to the
// global meter provider).
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.meter == nil {
		o.meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	return o
}

type pipelineMetrics struct {
	finalized            metric.Int64Counter
	linkFailures         metric.Int64Counter
	notificationFailures metric.Int64Counter
	stageFailures        metric.Int64Counter
}

func newPipelineMetrics(meter metric.Meter, logger *zap.Logger) *pipelineMetrics {
	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			logger.Warn("service: unable to register metric", zap.String("metric", name), zap.Error(err))
			return noop.Int64Counter{}
		}
		return c
	}

	return &pipelineMetrics{
		finalized:            counter("receipts.finalized", "Receipts finalized with a stored document"),
		linkFailures:         counter("receipts.link.failures", "Documents uploaded but not recorded on their receipt"),
		notificationFailures: counter("receipts.notification.failures", "Failed notification attempts per channel"),
		stageFailures:        counter("receipts.stage.failures", "Finalization failures by pipeline stage"),
	}
}
