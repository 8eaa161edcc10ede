package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cash-register-client/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// FakeService is an in-process stand-in for the remote change service. It
// serves every route the client uses, counts calls per "METHOD /path" and
// lets a test replace any route with Handle.
type FakeService struct {
	URL string

	srv *httptest.Server

	mu         sync.Mutex
	calls      map[string]int
	requestIDs []string
	overrides  map[string]http.HandlerFunc
	config     model.Config
	requests   []model.ChangeRequest
	uploadName string
	uploadBody []byte
	uploadType string
}

func NewFakeService(t testing.TB) *FakeService {
	t.Helper()

	f := &FakeService{
		calls:     make(map[string]int),
		overrides: make(map[string]http.HandlerFunc),
		config:    model.DefaultConfig(),
	}

	r := chi.NewRouter()
	r.Use(f.record)

	r.Post("/api/change", f.handleChange)
	r.Post("/api/change/batch", f.handleBatch)
	r.Post("/api/change/file", f.handleFile)
	r.Get("/api/config", f.handleGetConfig)
	r.Post("/api/config", f.handleSetConfig)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	f.srv = httptest.NewServer(r)
	f.URL = f.srv.URL
	t.Cleanup(f.srv.Close)

	return f
}

// Close stops the server early; later calls fail with a transport error.
func (f *FakeService) Close() {
	f.srv.Close()
}

// Handle replaces the handler for method and path.
func (f *FakeService) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+path] = h
}

func (f *FakeService) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+path]
}

func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeService) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requestIDs...)
}

func (f *FakeService) Config() model.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config.Clone()
}

func (f *FakeService) SetConfig(cfg model.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = cfg
}

// ChangeRequests returns every request decoded by the single and batch
// calculation routes, in arrival order.
func (f *FakeService) ChangeRequests() []model.ChangeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChangeRequest(nil), f.requests...)
}

// LastUpload returns the file name, part content type and body of the last
// multipart upload.
func (f *FakeService) LastUpload() (name, contentType string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadName, f.uploadType, f.uploadBody
}

func (f *FakeService) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		f.mu.Lock()
		f.calls[key]++
		f.requestIDs = append(f.requestIDs, r.Header.Get("X-Request-ID"))
		override := f.overrides[key]
		f.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeService) handleChange(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	resp, err := MakeChange(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	WriteJSON(w, resp)
}

func (f *FakeService) handleBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []model.ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, reqs...)
	f.mu.Unlock()

	out := make([]model.ChangeResponse, 0, len(reqs))
	for _, req := range reqs {
		resp, err := MakeChange(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out = append(out, resp)
	}
	WriteJSON(w, out)
}

func (f *FakeService) handleFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file content", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.uploadName = header.Filename
	f.uploadType = header.Header.Get("Content-Type")
	f.uploadBody = body
	f.mu.Unlock()

	out := []model.ChangeResponse{}
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			http.Error(w, fmt.Sprintf("Invalid line format: %s", line), http.StatusBadRequest)
			return
		}

		owed, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid amount owed: %s", parts[0]), http.StatusBadRequest)
			return
		}
		paid, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid amount paid: %s", parts[1]), http.StatusBadRequest)
			return
		}

		resp, err := MakeChange(model.ChangeRequest{AmountOwed: owed, AmountPaid: paid})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out = append(out, resp)
	}
	WriteJSON(w, out)
}

func (f *FakeService) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, f.Config())
}

func (f *FakeService) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid config", http.StatusBadRequest)
		return
	}
	f.SetConfig(cfg)
	WriteJSON(w, cfg)
}

func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

var coins = []struct {
	singular, plural string
	cents            int64
}{
	{"dollar", "dollars", 100},
	{"quarter", "quarters", 25},
	{"dime", "dimes", 10},
	{"nickel", "nickels", 5},
	{"penny", "pennies", 1},
}

// MakeChange is a deterministic greedy breakdown in US coins, enough to give
// tests realistic responses.
func MakeChange(req model.ChangeRequest) (model.ChangeResponse, error) {
	change := req.AmountPaid.Sub(req.AmountOwed).Round(2)
	if change.IsNegative() {
		return model.ChangeResponse{}, fmt.Errorf("amount paid must be greater than or equal to amount owed")
	}

	remaining := change.Shift(2).IntPart()
	denominations := map[string]int{}
	var parts []string

	for _, c := range coins {
		n := remaining / c.cents
		if n == 0 {
			continue
		}
		remaining -= n * c.cents

		name := c.plural
		if n == 1 {
			name = c.singular
		}
		denominations[c.plural] = int(n)
		parts = append(parts, fmt.Sprintf("%d %s", n, name))
	}

	return model.ChangeResponse{
		AmountOwed:      req.AmountOwed,
		AmountPaid:      req.AmountPaid,
		Change:          change,
		Denominations:   denominations,
		FormattedChange: strings.Join(parts, ", "),
	}, nil
}
