package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cash-register-client/internal/apperr"
	"cash-register-client/internal/model"
	"cash-register-client/internal/observability"
	"cash-register-client/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newClient(t *testing.T, f *testutil.FakeService) *Client {
	t.Helper()
	c, err := New(f.URL)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return c
}

func TestNewRejectsBadEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "empty", endpoint: ""},
		{name: "trailing slash", endpoint: "http://localhost:8080/"},
		{name: "relative", endpoint: "localhost"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.endpoint); err == nil {
				t.Fatalf("expected error for endpoint %q", tc.endpoint)
			}
		})
	}
}

func TestCalculateChangeSendsExactAmounts(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)

	req := model.ChangeRequest{
		AmountOwed: decimal.RequireFromString("2.13"),
		AmountPaid: decimal.RequireFromString("3.00"),
	}

	resp, err := c.CalculateChange(context.Background(), req)
	if err != nil {
		t.Fatalf("calculating change: %v", err)
	}

	if !resp.Change.Equal(decimal.RequireFromString("0.87")) {
		t.Fatalf("expected change 0.87, got %s", resp.Change)
	}
	if resp.FormattedChange != "3 quarters, 1 dime, 2 pennies" {
		t.Fatalf("unexpected formatted change %q", resp.FormattedChange)
	}

	sent := f.ChangeRequests()
	if len(sent) != 1 {
		t.Fatalf("expected 1 request, got %d", len(sent))
	}
	if !sent[0].AmountOwed.Equal(req.AmountOwed) || !sent[0].AmountPaid.Equal(req.AmountPaid) {
		t.Fatalf("expected %v, got %v", req, sent[0])
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)

	ctx := observability.ContextWithRequestID(context.Background(), "req-77")
	c.CheckHealth(ctx)
	c.CheckHealth(context.Background())

	ids := f.RequestIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 recorded ids, got %d", len(ids))
	}
	if ids[0] != "req-77" {
		t.Fatalf("expected propagated id %q, got %q", "req-77", ids[0])
	}
	if _, err := uuid.Parse(ids[1]); err != nil {
		t.Fatalf("expected generated UUID, got %q: %v", ids[1], err)
	}
}

func TestStatusErrorCarriesServiceMessage(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		message string
	}{
		{
			name: "plain text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "amount paid must be greater than or equal to amount owed", http.StatusBadRequest)
			},
			status:  http.StatusBadRequest,
			message: "amount paid must be greater than or equal to amount owed",
		},
		{
			name: "json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"error":"bad divisor"}`))
			},
			status:  http.StatusUnprocessableEntity,
			message: "bad divisor",
		},
		{
			name: "empty",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			status:  http.StatusBadGateway,
			message: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := testutil.NewFakeService(t)
			f.Handle(http.MethodPost, "/api/change", tc.handler)
			c := newClient(t, f)

			_, err := c.CalculateChange(context.Background(), model.ChangeRequest{})

			var se *apperr.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %T: %v", err, err)
			}
			if se.StatusCode != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, se.StatusCode)
			}
			if se.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, se.Message)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)
	f.Close()

	_, err := c.CalculateChange(context.Background(), model.ChangeRequest{})

	var ne *apperr.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if ne.Path != "/api/change" {
		t.Fatalf("expected path %q, got %q", "/api/change", ne.Path)
	}
}

func TestCheckHealth(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)

	if !c.CheckHealth(context.Background()) {
		t.Fatal("expected healthy")
	}

	f.Handle(http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if c.CheckHealth(context.Background()) {
		t.Fatal("expected unhealthy on 503")
	}

	f.Close()
	if c.CheckHealth(context.Background()) {
		t.Fatal("expected unhealthy when unreachable")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)

	want := model.Config{RandomDivisor: 7, Country: "CA", SpecialCases: []string{"Bonus"}}
	if err := c.SetConfig(context.Background(), want); err != nil {
		t.Fatalf("setting config: %v", err)
	}

	got, err := c.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("getting config: %v", err)
	}
	if got.RandomDivisor != 7 || got.Country != "CA" || got.SpecialCase() != "Bonus" {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestUploadFileStreamsMultipartCSV(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)

	csv := "1.50,2.00\n4.40,5.00\n"
	results, err := c.UploadFile(context.Background(), "data.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("uploading file: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].AmountOwed.Equal(decimal.RequireFromString("1.50")) ||
		!results[1].AmountOwed.Equal(decimal.RequireFromString("4.40")) {
		t.Fatalf("results out of order: %v", results)
	}

	name, contentType, body := f.LastUpload()
	if name != "data.csv" {
		t.Fatalf("expected filename %q, got %q", "data.csv", name)
	}
	if contentType != "text/csv" {
		t.Fatalf("expected part content type %q, got %q", "text/csv", contentType)
	}
	if string(body) != csv {
		t.Fatalf("expected body %q, got %q", csv, body)
	}
}

func TestUploadFileServiceError(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)

	_, err := c.UploadFile(context.Background(), "bad.csv", strings.NewReader("1,2,3\n"))

	var se *apperr.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if se.Message != "Invalid line format: 1,2,3" {
		t.Fatalf("unexpected message %q", se.Message)
	}
}

func TestCalculateBatchKeepsOrder(t *testing.T) {
	f := testutil.NewFakeService(t)
	c := newClient(t, f)

	reqs := []model.ChangeRequest{
		{AmountOwed: decimal.RequireFromString("1.50"), AmountPaid: decimal.RequireFromString("2.00")},
		{AmountOwed: decimal.RequireFromString("4.40"), AmountPaid: decimal.RequireFromString("5.00")},
	}

	results, err := c.CalculateBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("calculating batch: %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	for i := range reqs {
		if !results[i].AmountPaid.Equal(reqs[i].AmountPaid) {
			t.Fatalf("result %d: expected paid %s, got %s", i, reqs[i].AmountPaid, results[i].AmountPaid)
		}
	}
}

// slowReader yields remaining bytes in small delayed reads and counts reads made
// after closed is set.
type slowReader struct {
	remaining int
	closed    atomic.Bool
	lateReads atomic.Int32
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		r.lateReads.Add(1)
	}
	if r.remaining == 0 {
		return 0, io.EOF
	}
	time.Sleep(time.Millisecond)

	n := min(len(p), r.remaining)
	for i := range p[:n] {
		p[i] = 'x'
	}
	r.remaining -= n
	return n, nil
}

func TestUploadFileStopsReadingBeforeReturn(t *testing.T) {
	f := testutil.NewFakeService(t)
	f.Handle(http.MethodPost, "/api/change/file", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
	})
	c := newClient(t, f)

	src := &slowReader{remaining: 4 << 20}
	if _, err := c.UploadFile(context.Background(), "big.csv", src); err == nil {
		t.Fatal("expected error")
	}
	src.closed.Store(true)

	time.Sleep(20 * time.Millisecond)
	if n := src.lateReads.Load(); n != 0 {
		t.Fatalf("expected no reads after UploadFile returned, got %d", n)
	}
}
