package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cash-register-client/internal/batch"
	"cash-register-client/internal/calculator"
	"cash-register-client/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func newRemote(t *testing.T) *testutil.FakeService {
	t.Helper()
	f := testutil.NewFakeService(t)
	t.Setenv("CHANGE_API_URL", f.URL)
	t.Setenv("LOG_LEVEL", "error")
	return f
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestRunCalc(t *testing.T) {
	f := newRemote(t)

	code, stdout, stderr := runCLI(t, "calc", "-divisor", "7", "2.13", "3.00")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "3 quarters, 1 dime, 2 pennies") || !strings.Contains(stdout, "0.87") {
		t.Fatalf("expected change table, got %q", stdout)
	}
	if got := f.Config().RandomDivisor; got != 7 {
		t.Fatalf("expected divisor 7 pushed, got %d", got)
	}
}

func TestRunCalcValidationFailure(t *testing.T) {
	f := newRemote(t)

	code, _, stderr := runCLI(t, "calc", "5.00", "3.00")

	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, calculator.MsgPaidTooLow) {
		t.Fatalf("expected %q on stderr, got %q", calculator.MsgPaidTooLow, stderr)
	}
	if strings.Count(stderr, "error:") != 1 {
		t.Fatalf("expected the error once, got %q", stderr)
	}
	if n := f.Calls(http.MethodPost, "/api/change"); n != 0 {
		t.Fatalf("expected no calculation call, got %d", n)
	}
}

func TestRunCalcExtendedFieldsDisabled(t *testing.T) {
	newRemote(t)

	code, _, stderr := runCLI(t, "calc", "-country", "FR", "1", "2")

	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "extended config fields are disabled") {
		t.Fatalf("expected disabled message, got %q", stderr)
	}
}

func TestRunUpload(t *testing.T) {
	newRemote(t)

	code, stdout, stderr := runCLI(t, "upload", writeFile(t, "data.csv", "1.50,2.00\n4.40,5.00\n"))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	first := strings.Index(stdout, "1.50")
	second := strings.Index(stdout, "4.40")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected both rows in file order, got %q", stdout)
	}

	code, _, stderr = runCLI(t, "upload", writeFile(t, "data.txt", "1.50,2.00\n"))
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, batch.MsgNotCSV) {
		t.Fatalf("expected %q, got %q", batch.MsgNotCSV, stderr)
	}
}

func TestRunBatch(t *testing.T) {
	f := newRemote(t)

	code, stdout, stderr := runCLI(t, "batch", writeFile(t, "rows.csv", "1.50,2.00\n4.40,5.00\n"))

	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if n := f.Calls(http.MethodPost, "/api/change/batch"); n != 1 {
		t.Fatalf("expected 1 batch call, got %d", n)
	}
	if !strings.Contains(stdout, "0.60") {
		t.Fatalf("expected second row change, got %q", stdout)
	}

	code, _, stderr = runCLI(t, "batch", writeFile(t, "bad.csv", "1.50\n"))
	if code != 1 || !strings.Contains(stderr, "expected 2 fields") {
		t.Fatalf("expected parse failure, got %d %q", code, stderr)
	}
}

func TestRunHealth(t *testing.T) {
	f := newRemote(t)

	code, stdout, _ := runCLI(t, "health")
	if code != 0 || strings.TrimSpace(stdout) != "healthy" {
		t.Fatalf("expected healthy, got %d %q", code, stdout)
	}

	f.Handle(http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	code, stdout, _ = runCLI(t, "health")
	if code != 1 || strings.TrimSpace(stdout) != "unhealthy" {
		t.Fatalf("expected unhealthy, got %d %q", code, stdout)
	}
}

func TestRunConfig(t *testing.T) {
	newRemote(t)

	code, stdout, stderr := runCLI(t, "config")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"randomDivisor": 3`) {
		t.Fatalf("expected default divisor, got %q", stdout)
	}
}

func TestRunUsage(t *testing.T) {
	if code, _, stderr := runCLI(t); code != 2 || !strings.Contains(stderr, "usage:") {
		t.Fatalf("expected usage with exit 2, got %d %q", code, stderr)
	}

	newRemote(t)
	if code, _, stderr := runCLI(t, "frobnicate"); code != 2 || !strings.Contains(stderr, "unknown command") {
		t.Fatalf("expected unknown command with exit 2, got %d %q", code, stderr)
	}
}

func TestRunLoadsEnvFile(t *testing.T) {
	f := testutil.NewFakeService(t)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CHANGE_API_URL", "")
	os.Unsetenv("CHANGE_API_URL")
	t.Setenv(envFileVar, writeFile(t, "client.env", "CHANGE_API_URL="+f.URL+"\n"))

	if code, stdout, stderr := runCLI(t, "health"); code != 0 || strings.TrimSpace(stdout) != "healthy" {
		t.Fatalf("expected healthy via env file, got %d %q %q", code, stdout, stderr)
	}

	t.Setenv(envFileVar, filepath.Join(t.TempDir(), "missing.env"))
	if code, _, stderr := runCLI(t, "health"); code != 1 || !strings.Contains(stderr, "missing.env") {
		t.Fatalf("expected missing env file error, got %d %q", code, stderr)
	}
}
