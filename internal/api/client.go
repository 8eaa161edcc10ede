// Package api is the transport client for the remote change service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"cash-register-client/internal/apperr"
	"cash-register-client/internal/model"
	"cash-register-client/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

type Client struct {
	endpoint string
	c        *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.c = c
	}
}

// New returns a client for the service rooted at endpoint, e.g.
// "http://localhost:8080". The endpoint must not end with a slash.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if strings.HasSuffix(endpoint, "/") {
		return nil, errors.New("endpoint must not have a trailing slash")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute URL", endpoint)
	}

	c := &Client{
		endpoint: endpoint,
		c:        &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) CalculateChange(ctx context.Context, req model.ChangeRequest) (*model.ChangeResponse, error) {
	var resp model.ChangeResponse
	if err := c.do(ctx, http.MethodPost, "/api/change", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CalculateBatch(ctx context.Context, reqs []model.ChangeRequest) ([]model.ChangeResponse, error) {
	var resp []model.ChangeResponse
	if err := c.do(ctx, http.MethodPost, "/api/change/batch", reqs, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetConfig(ctx context.Context) (*model.Config, error) {
	var resp model.Config
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetConfig(ctx context.Context, cfg model.Config) error {
	return c.do(ctx, http.MethodPost, "/api/config", cfg, nil)
}

// CheckHealth reports whether GET /health answered 2xx. Any failure,
// transport or status, counts as unhealthy.
func (c *Client) CheckHealth(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/health", nil, nil) == nil
}

// UploadFile streams r as the multipart field "file" to the file-based
// batch endpoint. Results come back in row order. r is not read after
// UploadFile returns.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) ([]model.ChangeResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	written := make(chan struct{})
	go func() {
		defer close(written)
		pw.CloseWithError(writeFilePart(mw, filename, r))
	}()

	var resp []model.ChangeResponse
	err := c.send(ctx, http.MethodPost, "/api/change/file", pr, mw.FormDataContentType(), &resp)
	// Unblocks the writer if the request ended before it drained r, then
	// waits so r is no longer read once UploadFile returns.
	pr.Close()
	<-written
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func writeFilePart(mw *multipart.Writer, filename string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipart.FileContentDisposition("file", filename))
	h.Set("Content-Type", "text/csv")

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, body, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	ctx, requestID := observability.EnsureRequestID(ctx)
	logger := observability.LoggerWithTrace(ctx)

	hreq, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set(observability.RequestIDHeader, requestID)

	start := time.Now()
	hresp, err := c.c.Do(hreq)
	if err != nil {
		logger.Debug("remote call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &apperr.NetworkError{Method: method, Path: path, Err: err}
	}
	defer hresp.Body.Close()

	logger.Debug("remote call completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", hresp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)),
	)

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return &apperr.StatusError{
			Method:     method,
			Path:       path,
			StatusCode: hresp.StatusCode,
			Message:    errorMessage(hresp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, hresp.Body)
		return nil
	}
	if err := json.NewDecoder(hresp.Body).Decode(out); err != nil {
		return &apperr.NetworkError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts the service's description of a failure: the
// "error" field of a JSON body, or the plain text written by http.Error.
func errorMessage(r io.Reader) string {
	buf, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(buf, &payload) == nil && payload.Error != "" {
		return payload.Error
	}

	msg := strings.TrimSpace(string(buf))
	if strings.HasPrefix(msg, "{") || strings.HasPrefix(msg, "<") {
		return ""
	}
	return msg
}
