package aishe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the per-request deadline used when none is configured.
const DefaultTimeout = 120 * time.Second

// ExecutorConfig holds the executor configuration.
type ExecutorConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Executor issues single deadline-bounded JSON requests against the AISHE
// server and classifies every failure as a ClientError, ServiceError or
// UnreachableError. It never retries.
type Executor struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewExecutor creates a new executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Executor{
		client:  cfg.HTTPClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With().Str("component", "executor").Logger(),
	}
}

// Timeout returns the configured per-request deadline.
func (e *Executor) Timeout() time.Duration { return e.timeout }

// BaseURL returns the server base URL without a trailing slash.
func (e *Executor) BaseURL() string { return e.baseURL }

// Execute sends one request to endpoint (a path relative to the base URL)
// and returns the raw JSON body of a 2xx reply. body, if non-nil, is
// serialized as JSON; GET requests must not carry one.
func (e *Executor) Execute(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	if method == http.MethodGet && body != nil {
		return nil, NewClientError("GET requests must not carry a body", nil)
	}

	var payload io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, NewClientError(method+" request: marshal body", err)
		}
		payload = bytes.NewReader(jsonBody)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, e.baseURL+endpoint, payload)
	if err != nil {
		return nil, NewClientError(method+" request: create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.classify(reqCtx, method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.classify(reqCtx, method, err)
	}

	e.logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}
	}

	if !json.Valid(data) {
		return nil, NewClientError(method+" request failed! Unexpected error: response is not JSON", ErrMalformedResponse)
	}
	return json.RawMessage(data), nil
}

// classify maps a transport error to the taxonomy. Only the deadline maps to
// UnreachableError; every other transport failure is a ClientError.
func (e *Executor) classify(reqCtx context.Context, method string, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &UnreachableError{Method: method, Timeout: e.timeout, Err: context.DeadlineExceeded}
	}
	return NewClientError(fmt.Sprintf("%s request failed! Unexpected error", method), err)
}

// errorDetail extracts the server's error message from a non-2xx body.
func errorDetail(data []byte) string {
	var envelope errorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Detail != "" {
		return envelope.Detail
	}
	detail := strings.TrimSpace(string(data))
	if len(detail) > 256 {
		detail = detail[:256]
	}
	return detail
}
