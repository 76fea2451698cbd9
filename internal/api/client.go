package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/pushp314/crova-storefront/internal/logging"
)

// TokenSource provides the persisted bearer token. Implemented by the state
// store; the client never writes a token, it only reads and clears one.
type TokenSource interface {
	Token() (string, bool)
	ClearToken() error
}

// UnauthorizedObserver is notified exactly once per 401 response, after the
// persisted token has been cleared. The session store registers itself here
// so that every signed-in view is torn down without per-call handling.
type UnauthorizedObserver interface {
	Unauthorized()
}

// Config holds HTTP client configuration.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns sensible defaults for the API client.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Timeout:         30 * time.Second,
		MaxConnsPerHost: 100,
	}
}

// Client is the single configured HTTP client for the Crova API. It
// attaches the bearer token to every outgoing request, normalizes error
// bodies into AppError values, and broadcasts a process-wide unauthorized
// notification on any 401 response. It performs no retries: a failed call
// is surfaced to the caller as-is.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	breaker    *readBreaker

	mu       sync.RWMutex
	observer UnauthorizedObserver
}

// New creates the API client. The unauthorized observer is injected later
// via SetUnauthorizedObserver because the session store that implements it
// is itself built on top of this client.
func New(cfg Config, tokens TokenSource, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		tokens:  tokens,
		logger:  logger,
		breaker: newReadBreaker("crova-api-reads", logger),
	}, nil
}

// SetUnauthorizedObserver registers the observer notified on 401 responses.
func (c *Client) SetUnauthorizedObserver(o UnauthorizedObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// ReadBreakerState reports the state of the read circuit breaker.
func (c *Client) ReadBreakerState() gobreaker.State {
	return c.breaker.state()
}

type requestOptions struct {
	idempotencyKey string
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

// WithIdempotencyKey attaches an Idempotency-Key header so the server can
// de-duplicate a resubmitted mutation (used for order creation).
func WithIdempotencyKey(key string) RequestOption {
	return func(o *requestOptions) {
		o.idempotencyKey = key
	}
}

// Get performs a GET request and decodes the JSON response into out.
// Read traffic flows through the circuit breaker; mutations never do.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, requestOptions{})
}

// Post performs a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return c.do(ctx, http.MethodPost, path, in, out, o)
}

// Put performs a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out, requestOptions{})
}

// Delete performs a DELETE request and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, requestOptions{})
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, opts requestOptions) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}
	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	req.Header.Set("X-Correlation-ID", correlationID)
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var resp *http.Response
	if method == http.MethodGet {
		resp, err = c.breaker.execute(func() (*http.Response, error) {
			return c.httpClient.Do(req)
		})
		// A 5xx counted as a breaker failure still carries the response;
		// fall through so the error body is parsed like any other failure.
		if _, ok := err.(errServerStatus); ok && resp != nil {
			err = nil
		}
	} else {
		resp, err = c.httpClient.Do(req)
	}
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	requestsTotal.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusUnauthorized {
		c.notifyUnauthorized(ctx)
	}

	if resp.StatusCode >= 400 {
		return parseResponseError(resp, method, path)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// notifyUnauthorized clears the persisted token and fires the
// process-wide unauthorized signal. Receiving the signal is idempotent on
// the session side, so repeated 401s are harmless.
func (c *Client) notifyUnauthorized(ctx context.Context) {
	unauthorizedTotal.Inc()
	log := logging.WithContext(ctx, c.logger)

	if err := c.tokens.ClearToken(); err != nil {
		log.ErrorContext(ctx, "failed to clear token after 401",
			slog.String("error", err.Error()),
		)
	}

	c.mu.RLock()
	observer := c.observer
	c.mu.RUnlock()

	if observer != nil {
		observer.Unauthorized()
	}

	log.InfoContext(ctx, "unauthorized response, session invalidated")
}

func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
