package observability

import (
	"context"

	"cash-register-client/internal/apperr"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RecordError centralises failure bookkeeping for the controllers: records
// the error on the span, increments counter with the operation and error
// kind, and logs with trace context. Validation and busy rejections log at
// warn level since they are user input, not faults.
func RecordError(ctx context.Context, span trace.Span, logger *zap.Logger, counter metric.Int64Counter, opName, msg string, err error) {
	kind := apperr.Kind(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", opName),
		attribute.String("kind", kind),
	))

	log := logger.Error
	if kind == "validation" || kind == "busy" {
		log = logger.Warn
	}

	log(msg,
		zap.String("operation", opName),
		zap.String("kind", kind),
		zap.Error(err),
		zap.String("request_id", RequestIDFromContext(ctx)),
	)
}
