// Package batch uploads delimited files (or pre-parsed rows) to the batch
// endpoints and writes the ordered results into the shared state.
package batch

import (
	"context"
	"fmt"
	"io"

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
	MsgNotCSV        = "Please upload a valid CSV file"
	MsgProcessFailed = "Failed to process file"
)

var tracer = otel.Tracer("batch")

type Engine interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) ([]model.ChangeResponse, error)
	CalculateBatch(ctx context.Context, reqs []model.ChangeRequest) ([]model.ChangeResponse, error)
}

type Controller struct {
	store  *state.Store
	engine Engine
	guard  *semaphore.Weighted

	Input *FileInput
}

func New(store *state.Store, engine Engine) *Controller {
	return &Controller{
		store:  store,
		engine: engine,
		guard:  semaphore.NewWeighted(1),
		Input:  &FileInput{},
	}
}

// Upload handles a file selection: validate the type, dispatch the file and
// replace the batch results. The file input is reset on every path out.
func (c *Controller) Upload(ctx context.Context, sel Selection) error {
	if !c.guard.TryAcquire(1) {
		c.countBusy(ctx, "upload")
		return apperr.ErrBusy
	}
	defer c.guard.Release(1)

	c.Input.Select(sel)
	defer c.Input.Reset()

	ctx, requestID := observability.EnsureRequestID(ctx)
	ctx, span := tracer.Start(ctx, "batch.upload",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("batch.file", sel.Name),
		),
	)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	if !sel.IsCSV() {
		err := apperr.Validation(MsgNotCSV)
		c.store.Error.Set(MsgNotCSV)
		observability.RecordError(ctx, span, logger, errorCounter, "upload", "file rejected", err)
		return err
	}

	return c.dispatch(ctx, span, logger, "upload", func(ctx context.Context) ([]model.ChangeResponse, error) {
		rc, err := sel.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", sel.Name, err)
		}
		defer rc.Close()
		return c.engine.UploadFile(ctx, sel.Name, rc)
	})
}

// Submit sends rows that were already parsed to the batch endpoint with the
// same state semantics as Upload.
func (c *Controller) Submit(ctx context.Context, rows []model.ChangeRequest) error {
	if !c.guard.TryAcquire(1) {
		c.countBusy(ctx, "batch")
		return apperr.ErrBusy
	}
	defer c.guard.Release(1)

	ctx, requestID := observability.EnsureRequestID(ctx)
	ctx, span := tracer.Start(ctx, "batch.submit",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.Int("batch.rows", len(rows)),
		),
	)
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	return c.dispatch(ctx, span, logger, "batch", func(ctx context.Context) ([]model.ChangeResponse, error) {
		return c.engine.CalculateBatch(ctx, rows)
	})
}

// ClearResults empties the batch results and the error.
func (c *Controller) ClearResults() {
	c.store.ClearBatch()
}

func (c *Controller) dispatch(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, call func(context.Context) ([]model.ChangeResponse, error)) error {
	c.store.BatchResults.Set([]model.ChangeResponse{})
	c.store.Error.Reset()
	c.store.BeginLoading()

	results, err := call(ctx)
	if err != nil {
		c.store.Error.Set(apperr.Message(err, MsgProcessFailed))
		c.store.EndLoading()

		uploadsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", opName),
			attribute.String("outcome", "failure"),
		))
		observability.RecordError(ctx, span, logger, errorCounter, opName, "batch failed", err)
		return err
	}

	if results == nil {
		results = []model.ChangeResponse{}
	}
	c.store.BatchResults.Set(results)
	c.store.EndLoading()

	uploadsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", opName),
		attribute.String("outcome", "success"),
	))
	rowsHistogram.Record(ctx, int64(len(results)), metric.WithAttributes(attribute.String("operation", opName)))

	span.SetAttributes(attribute.Int("batch.results", len(results)))
	span.SetStatus(codes.Ok, "")

	logger.Info("batch completed",
		zap.String("operation", opName),
		zap.Int("results", len(results)),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	return nil
}

func (c *Controller) countBusy(ctx context.Context, opName string) {
	errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", opName),
		attribute.String("kind", "busy"),
	))
}
