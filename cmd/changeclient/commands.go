package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"cash-register-client/internal/batch"
	"cash-register-client/internal/config"
	"cash-register-client/internal/handlers"
	"cash-register-client/internal/observability"
	"cash-register-client/internal/server"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func runCalc(ctx context.Context, s *handlers.Session, args []string) error {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	divisor := fs.Int("divisor", 0, "random divisor to push before calculating")
	country := fs.String("country", "", "country (extended config fields only)")
	special := fs.String("special", "", "special case (extended config fields only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("calc needs OWED and PAID")
	}

	s.Config.Load(ctx)

	if *divisor != 0 {
		if err := s.Config.SetDivisor(*divisor); err != nil {
			return err
		}
	}
	if *country != "" {
		if err := s.Config.SetCountry(*country); err != nil {
			return err
		}
	}
	if *special != "" {
		if err := s.Config.SetSpecialCase(*special); err != nil {
			return err
		}
	}

	s.Calculator.SetAmounts(fs.Arg(0), fs.Arg(1))
	return s.Calculator.Submit(ctx)
}

func runUpload(ctx context.Context, s *handlers.Session, args []string) error {
	if len(args) != 1 {
		return errors.New("upload needs FILE")
	}
	return s.Batch.Upload(ctx, batch.SelectionFromPath(args[0]))
}

func runBatch(ctx context.Context, s *handlers.Session, args []string) error {
	if len(args) != 1 {
		return errors.New("batch needs FILE")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := batch.ParseRows(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return s.Batch.Submit(ctx, rows)
}

func runHealth(ctx context.Context, s *handlers.Session, stdout io.Writer) error {
	if !s.Monitor.Check(ctx) {
		fmt.Fprintln(stdout, "unhealthy")
		return errors.New("remote service is unhealthy")
	}
	fmt.Fprintln(stdout, "healthy")
	return nil
}

func runConfig(ctx context.Context, s *handlers.Session, stdout io.Writer) error {
	cfg := s.Config.Load(ctx)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// runServe loads the remote config, starts the health monitor and serves the
// local surface until ctx is cancelled.
func runServe(ctx context.Context, s *handlers.Session, cfg *config.Config) error {
	logger := observability.Logger

	s.Config.Load(ctx)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewRouter(s),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.Monitor.Run(ctx)
	})

	g.Go(func() error {
		logger.Info("server started", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("server stopping")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
