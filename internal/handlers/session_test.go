package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cash-register-client/internal/api"
	"cash-register-client/internal/batch"
	"cash-register-client/internal/calculator"
	"cash-register-client/internal/configsync"
	"cash-register-client/internal/health"
	"cash-register-client/internal/state"
	"cash-register-client/internal/testutil"
)

func newSession(t *testing.T, opts ...configsync.Option) (*Session, *testutil.FakeService) {
	t.Helper()

	f := testutil.NewFakeService(t)
	client, err := api.New(f.URL)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	store := state.New()
	sync := configsync.New(client, opts...)
	return &Session{
		Store:      store,
		Calculator: calculator.New(store, sync, client),
		Batch:      batch.New(store, client),
		Config:     sync,
		Monitor:    health.New(client, 0),
	}, f
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	return body
}

func TestCalculateFlow(t *testing.T) {
	s, fake := newSession(t)

	w := httptest.NewRecorder()
	s.SetAmounts(w, httptest.NewRequest(http.MethodPut, "/amounts", strings.NewReader(`{"amountOwed":"2.13","amountPaid":"3.00"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	w = httptest.NewRecorder()
	s.Calculate(w, httptest.NewRequest(http.MethodPost, "/calculate", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := decodeState(t, w)
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %#v", body["result"])
	}
	if got := result["formattedChange"]; got != "3 quarters, 1 dime, 2 pennies" {
		t.Fatalf("expected formatted change, got %#v", got)
	}
	if body["phase"] != "idle" {
		t.Fatalf("expected phase idle, got %#v", body["phase"])
	}
	if n := fake.Calls(http.MethodPost, "/api/change"); n != 1 {
		t.Fatalf("expected 1 calculation call, got %d", n)
	}
}

func TestCalculateValidationFailure(t *testing.T) {
	s, fake := newSession(t)
	s.Calculator.SetAmounts("5.00", "3.00")

	w := httptest.NewRecorder()
	s.Calculate(w, httptest.NewRequest(http.MethodPost, "/calculate", nil))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
	body := decodeState(t, w)
	if body["error"] != calculator.MsgPaidTooLow {
		t.Fatalf("expected error %q, got %#v", calculator.MsgPaidTooLow, body["error"])
	}
	if n := fake.TotalCalls(); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
}

func TestCalculateRemoteFailure(t *testing.T) {
	s, fake := newSession(t)
	fake.Handle(http.MethodPost, "/api/change", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	s.Calculator.SetAmounts("1", "2")

	w := httptest.NewRecorder()
	s.Calculate(w, httptest.NewRequest(http.MethodPost, "/calculate", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, w.Code)
	}
	if body := decodeState(t, w); body["error"] != calculator.MsgCalculateFailed {
		t.Fatalf("expected generic error, got %#v", body["error"])
	}
}

func TestClearResetsCalculation(t *testing.T) {
	s, _ := newSession(t)
	s.Calculator.SetAmounts("abc", "1")
	s.Store.Error.Set("Please enter valid numbers")

	w := httptest.NewRecorder()
	s.Clear(w, httptest.NewRequest(http.MethodPost, "/clear", nil))

	body := decodeState(t, w)
	if body["amountOwed"] != "" || body["amountPaid"] != "" || body["result"] != nil {
		t.Fatalf("expected cleared state, got %#v", body)
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("expected error omitted, got %#v", body["error"])
	}
}

func TestUploadAndClearResults(t *testing.T) {
	s, _ := newSession(t)

	req := testutil.NewUploadRequest(t, "/upload", "data.csv", "1.50,2.00\n4.40,5.00\n")

	w := httptest.NewRecorder()
	s.Upload(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	snap := decodeState(t, w)
	results, ok := snap["batchResults"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("expected 2 batch results, got %#v", snap["batchResults"])
	}

	w = httptest.NewRecorder()
	s.ClearResults(w, httptest.NewRequest(http.MethodPost, "/results/clear", nil))
	snap = decodeState(t, w)
	if results, _ := snap["batchResults"].([]any); len(results) != 0 {
		t.Fatalf("expected empty results, got %#v", snap["batchResults"])
	}
}

func TestUploadRejectsNonCSV(t *testing.T) {
	s, fake := newSession(t)

	req := testutil.NewUploadRequest(t, "/upload", "data.txt", "1.50,2.00\n")

	w := httptest.NewRecorder()
	s.Upload(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
	if snap := decodeState(t, w); snap["error"] != batch.MsgNotCSV {
		t.Fatalf("expected %q, got %#v", batch.MsgNotCSV, snap["error"])
	}
	if n := fake.TotalCalls(); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
}

func TestUploadMissingFile(t *testing.T) {
	s, _ := newSession(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	w := httptest.NewRecorder()
	s.Upload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestEditConfig(t *testing.T) {
	tests := []struct {
		name     string
		extended bool
		body     string
		status   int
	}{
		{name: "divisor", body: `{"randomDivisor":7}`, status: http.StatusOK},
		{name: "bad divisor", body: `{"randomDivisor":4}`, status: http.StatusBadRequest},
		{name: "country disabled", body: `{"country":"FR"}`, status: http.StatusForbidden},
		{name: "country enabled", extended: true, body: `{"country":"FR"}`, status: http.StatusOK},
		{name: "special case enabled", extended: true, body: `{"specialCase":"Twist"}`, status: http.StatusOK},
		{name: "malformed", body: `{`, status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newSession(t, configsync.WithExtendedFields(tc.extended))

			w := httptest.NewRecorder()
			s.EditConfig(w, httptest.NewRequest(http.MethodPut, "/config", strings.NewReader(tc.body)))

			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetConfigReturnsDraft(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Config.SetDivisor(10); err != nil {
		t.Fatalf("setting divisor: %v", err)
	}

	w := httptest.NewRecorder()
	s.GetConfig(w, httptest.NewRequest(http.MethodGet, "/config", nil))

	var body struct {
		Draft struct {
			RandomDivisor int `json:"randomDivisor"`
		} `json:"draft"`
		ExtendedFields bool   `json:"extendedFields"`
		PushPolicy     string `json:"pushPolicy"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding config: %v", err)
	}
	if body.Draft.RandomDivisor != 10 {
		t.Fatalf("expected divisor 10, got %d", body.Draft.RandomDivisor)
	}
	if body.ExtendedFields {
		t.Fatal("expected extended fields disabled")
	}
	if body.PushPolicy != "proceed" {
		t.Fatalf("expected push policy proceed, got %q", body.PushPolicy)
	}
}
