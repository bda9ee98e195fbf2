// Package gateway holds the outbound HTTP client shared by the external
// fleet-management adapters. Calls retry with exponential backoff; client
// errors other than 429 are raised immediately.
package gateway

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

const (
	defaultTimeout         = 30 * time.Second
	defaultRetryDelay      = 1 * time.Second
	defaultRetryMultiplier = 2.0
	defaultMaxRetryDelay   = 60 * time.Second

	// ServiceName identifies this service to its upstreams.
	ServiceName = "aircraft-service"
)

// Config configures one outbound client instance.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxRetries      int // 0 means retry until the context is cancelled
	RetryDelay      time.Duration
	RetryMultiplier float64
	MaxRetryDelay   time.Duration
	Headers         map[string]string
}

// StatusError is a non-2xx response from an upstream.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth retrying: 429 and server
// errors are, other client errors are not.
func (e *StatusError) Retryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode < 400 || e.StatusCode >= 500
}

// Response is a successful upstream reply. Body is empty for bodiless
// responses; Decode parses a JSON body into a typed value.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// RequestOptions override per-call headers and timeout.
type RequestOptions struct {
	Headers map[string]string
	Timeout time.Duration
}

// Client performs HTTP calls against a configured base address, retrying on
// retryable failures with exponentially increasing, capped delays.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client, filling unset config fields with defaults.
// The service-identity header is always present.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.RetryMultiplier <= 1 {
		cfg.RetryMultiplier = defaultRetryMultiplier
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = defaultMaxRetryDelay
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	headers := map[string]string{
		"Content-Type":   "application/json",
		"X-Service-Name": ServiceName,
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        logger,
	}
}

// Get performs a GET request with retries.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts)
}

// Post performs a POST request with retries. A non-nil body is sent as JSON.
func (c *Client) Post(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts)
}

// Do performs the call, retrying retryable failures. With MaxRetries == 0
// the loop is unbounded; callers wanting a hard deadline must bound ctx.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts *RequestOptions) (*Response, error) {
	url := c.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	retries := 0
	delay := c.cfg.RetryDelay
	for {
		resp, err := c.attempt(ctx, method, url, payload, opts)
		if err == nil {
			return resp, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		retries++
		if c.cfg.MaxRetries > 0 && retries > c.cfg.MaxRetries {
			c.log.Error().Err(err).Str("method", method).Str("url", url).
				Int("max_retries", c.cfg.MaxRetries).Msg("retries exhausted")
			return nil, err
		}

		c.log.Warn().Err(err).Str("method", method).Str("url", url).
			Int("retry", retries).Dur("delay", delay).Msg("request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * c.cfg.RetryMultiplier)
		if delay > c.cfg.MaxRetryDelay {
			delay = c.cfg.MaxRetryDelay
		}
	}
}

// attempt performs a single request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, url string, payload []byte, opts *RequestOptions) (*Response, error) {
	timeout := c.cfg.Timeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, url, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.log.Debug().Str("method", method).Str("url", url).
			Int("status", resp.StatusCode).Msg("request succeeded")
		return &Response{StatusCode: resp.StatusCode, Body: content}, nil
	}

	return nil, &StatusError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       string(content),
	}
}
