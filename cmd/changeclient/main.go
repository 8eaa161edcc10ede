// Command changeclient drives the remote change service: single
// calculations, file and pre-parsed batches, health and config, and a local
// HTTP surface over the client state.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cash-register-client/internal/config"
	"cash-register-client/internal/observability"
)

const usage = `usage: changeclient <command> [arguments]

commands:
  calc [-divisor N] [-country C] [-special S] OWED PAID
  upload FILE     send a CSV file to the file batch endpoint
  batch FILE      parse a CSV file locally and send the rows as a batch
  health          check the remote service once
  config          print the remote configuration
  serve           run the local state surface until interrupted
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	// Logger
	if err := observability.InitLogger(cfg.Logging.Level); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer observability.SyncLogger()

	// Traces, metrics and logs
	shutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer shutdown(context.WithoutCancel(ctx))

	sess, err := newSession(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer render(sess.Store, stdout, stderr)()

	cmd, cmdArgs := args[0], args[1:]

	switch cmd {
	case "calc":
		err = runCalc(ctx, sess, cmdArgs)
	case "upload":
		err = runUpload(ctx, sess, cmdArgs)
	case "batch":
		err = runBatch(ctx, sess, cmdArgs)
	case "health":
		err = runHealth(ctx, sess, stdout)
	case "config":
		err = runConfig(ctx, sess, stdout)
	case "serve":
		err = runServe(ctx, sess, cfg)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err != nil {
		// Controller failures are already rendered from the store.
		if sess.Store.Error.Get() == "" {
			fmt.Fprintln(stderr, "error:", err)
		}
		return 1
	}
	return 0
}
