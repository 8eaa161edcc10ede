// Package calculator drives a single change calculation: it validates the
// amount fields, pushes the draft config, calls the engine and writes the
// outcome into the shared state.
package calculator

import (
	"context"
	"time"

	"cash-register-client/internal/apperr"
	"cash-register-client/internal/model"
	"cash-register-client/internal/observability"
	"cash-register-client/internal/state"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	MsgCalculateFailed = "Failed to calculate change"
	MsgConfigFailed    = "Failed to update configuration"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

type Engine interface {
	CalculateChange(ctx context.Context, req model.ChangeRequest) (*model.ChangeResponse, error)
}

type ConfigPusher interface {
	Push(ctx context.Context) error
}

type Controller struct {
	store  *state.Store
	config ConfigPusher
	engine Engine

	// guard admits one attempt at a time.
	guard *semaphore.Weighted

	// Phase publishes every state machine transition.
	Phase *state.Cell[Phase]
}

func New(store *state.Store, config ConfigPusher, engine Engine) *Controller {
	return &Controller{
		store:  store,
		config: config,
		engine: engine,
		guard:  semaphore.NewWeighted(1),
		Phase:  state.NewCell(Idle),
	}
}

// SetAmounts writes the two amount fields.
func (c *Controller) SetAmounts(owed, paid string) {
	c.store.AmountOwedText.Set(owed)
	c.store.AmountPaidText.Set(paid)
}

// Clear resets the amount fields, result and error. It is independent of
// any attempt in flight.
func (c *Controller) Clear() {
	c.store.ClearCalculation()
}

// Submit runs one attempt with the current amount fields. The outcome is
// written to the store; the returned error is the same failure for callers
// that need it. A submit while another is in flight returns apperr.ErrBusy
// and leaves the store untouched.
func (c *Controller) Submit(ctx context.Context) error {
	if !c.guard.TryAcquire(1) {
		errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", "calculate"),
			attribute.String("kind", "busy"),
		))
		return apperr.ErrBusy
	}
	defer c.guard.Release(1)

	ctx, requestID := observability.EnsureRequestID(ctx)

	ctx, span := tracer.Start(ctx, "calculator.submit",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	c.store.Result.Set(nil)
	c.store.Error.Reset()

	c.Phase.Set(Validating)
	req, err := ParseAmounts(c.store.AmountOwedText.Get(), c.store.AmountPaidText.Get())
	if err != nil {
		c.store.Error.Set(apperr.Message(err, MsgCalculateFailed))
		observability.RecordError(ctx, span, logger, errorCounter, "calculate", "calculation rejected", err)
		c.Phase.Set(Idle)
		return err
	}

	span.SetAttributes(
		attribute.String("calculator.amount_owed", req.AmountOwed.String()),
		attribute.String("calculator.amount_paid", req.AmountPaid.String()),
	)

	start := time.Now()
	c.store.BeginLoading()

	c.Phase.Set(Syncing)
	if err := c.config.Push(ctx); err != nil {
		return c.fail(ctx, span, logger, start, err, MsgConfigFailed)
	}
	span.AddEvent("config.pushed")

	c.Phase.Set(Calculating)
	resp, err := c.engine.CalculateChange(ctx, req)
	if err != nil {
		return c.fail(ctx, span, logger, start, err, MsgCalculateFailed)
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	c.store.Result.Set(resp)
	c.store.Error.Reset()
	c.store.EndLoading()
	c.Phase.Set(Succeeded)

	attrs := metric.WithAttributes(attribute.String("outcome", "success"))
	requestsCounter.Add(ctx, 1, attrs)
	durationHistogram.Record(ctx, elapsed, attrs)
	changeGauge.Record(ctx, resp.Change.InexactFloat64())

	span.SetAttributes(attribute.String("calculator.change", resp.Change.String()))
	span.SetStatus(codes.Ok, "")

	logger.Info("change calculated",
		zap.String("amount_owed", req.AmountOwed.String()),
		zap.String("amount_paid", req.AmountPaid.String()),
		zap.String("change", resp.Change.String()),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	c.Phase.Set(Idle)
	return nil
}

func (c *Controller) fail(ctx context.Context, span trace.Span, logger *zap.Logger, start time.Time, err error, fallback string) error {
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	c.store.Error.Set(apperr.Message(err, fallback))
	c.store.Result.Set(nil)
	c.store.EndLoading()
	c.Phase.Set(Failed)

	attrs := metric.WithAttributes(attribute.String("outcome", "failure"))
	requestsCounter.Add(ctx, 1, attrs)
	durationHistogram.Record(ctx, elapsed, attrs)
	observability.RecordError(ctx, span, logger, errorCounter, "calculate", "calculation failed", err)

	c.Phase.Set(Idle)
	return err
}
