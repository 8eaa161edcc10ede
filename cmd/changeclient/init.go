package main

import (
	"context"
	"errors"

	"cash-register-client/internal/batch"
	"cash-register-client/internal/calculator"
	"cash-register-client/internal/config"
	"cash-register-client/internal/configsync"
	"cash-register-client/internal/health"
	"cash-register-client/internal/observability"
)

// initTelemetry starts the OTLP trace, metric and log pipelines when enabled
// and registers every domain instrument. The returned func flushes and stops
// whatever was started.
func initTelemetry(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.Telemetry.Enabled {
		observability.SetServiceName(cfg.Telemetry.ServiceName)

		for _, start := range []func(context.Context) (func(context.Context) error, error){
			observability.InitTracing,
			observability.InitMetrics,
			observability.InitLogging,
		} {
			stop, err := start(ctx)
			if err != nil {
				_ = shutdown(ctx)
				return nil, err
			}
			shutdowns = append(shutdowns, stop)
		}
	}

	for _, initMetrics := range []func() error{
		calculator.InitMetrics,
		configsync.InitMetrics,
		batch.InitMetrics,
		health.InitMetrics,
	} {
		if err := initMetrics(); err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
	}

	return shutdown, nil
}
