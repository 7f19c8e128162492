package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prepcoach/internal/logging"
	"prepcoach/internal/services"
)

const (
	defaultHTTPTimeout    = 15 * time.Second
	defaultUploadTimeout  = 90 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryAttempts  = 3
	defaultUserAgent      = "prepcoach"
	maxErrorBody          = 4 << 10
)

// Config captures the runtime settings required to talk to the backend.
type Config struct {
	BaseURL              string
	TimeoutSeconds       int
	UploadTimeoutSeconds int
	RetryAttempts        int
	UserAgent            string
}

// TokenSource supplies the bearer credential attached to every request.
// An empty token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same value.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() string { return string(s) }

// Client wraps the interview backend REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger

	requestTimeout   time.Duration
	uploadTimeout    time.Duration
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Its transport is
// wrapped by the request pipeline; the supplied value is not modified.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource sets where bearer credentials come from.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithLogger attaches a logger used for request tracing at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetryMaxAttempts overrides the retry count for idempotent requests.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithUploadTimeout overrides the deadline applied to answer uploads.
func WithUploadTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.uploadTimeout = timeout
	}
}

// NewClient constructs a backend client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			BaseURL:              strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds:       cfg.TimeoutSeconds,
			UploadTimeoutSeconds: cfg.UploadTimeoutSeconds,
			RetryAttempts:        cfg.RetryAttempts,
			UserAgent:            strings.TrimSpace(cfg.UserAgent),
		},
		httpClient:       &http.Client{},
		logger:           logging.NewNop(),
		requestTimeout:   defaultHTTPTimeout,
		uploadTimeout:    defaultUploadTimeout,
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	if cfg.TimeoutSeconds > 0 {
		client.requestTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.UploadTimeoutSeconds > 0 {
		client.uploadTimeout = time.Duration(cfg.UploadTimeoutSeconds) * time.Second
	}
	if cfg.RetryAttempts > 0 {
		client.retryMaxAttempts = cfg.RetryAttempts + 1
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "http://localhost:8080/api/v1"
	}
	if client.cfg.UserAgent == "" {
		client.cfg.UserAgent = defaultUserAgent
	}

	wrapped := *client.httpClient
	wrapped.Transport = newPipeline(wrapped.Transport,
		withUserAgent(client.cfg.UserAgent),
		withRequestID(),
		withBearer(client.tokens),
		withTrace(client.logger),
	)
	client.httpClient = &wrapped
	return client
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// UploadTimeout returns the deadline applied to answer uploads.
func (c *Client) UploadTimeout() time.Duration {
	return c.uploadTimeout
}

func (c *Client) endpoint(segments ...string) (string, error) {
	escaped := make([]string, 0, len(segments))
	for _, seg := range segments {
		escaped = append(escaped, url.PathEscape(seg))
	}
	joined, err := url.JoinPath(c.cfg.BaseURL, escaped...)
	if err != nil {
		return "", fmt.Errorf("backend request: build url: %w", err)
	}
	return joined, nil
}

// getJSON issues an idempotent GET, retrying transient failures.
func (c *Client) getJSON(ctx context.Context, out any, segments ...string) error {
	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, _, err := c.send(ctx, call{method: http.MethodGet, segments: segments, timeout: c.requestTimeout})
		if err == nil {
			return decodeBody(body, out)
		}
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return err
		}
		c.logger.DebugContext(ctx, "retrying backend request",
			logging.String("path", strings.Join(segments, "/")),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("backend request: failed after %d attempts: %w", attempts, lastErr)
}

// postJSON issues a single POST. Non-idempotent requests are never retried.
func (c *Client) postJSON(ctx context.Context, in, out any, segments ...string) error {
	var reader io.Reader
	contentType := ""
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend request: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	body, _, err := c.send(ctx, call{method: http.MethodPost, segments: segments, body: reader, contentType: contentType, timeout: c.requestTimeout})
	if err != nil {
		return err
	}
	return decodeBody(body, out)
}

// call describes one round trip.
type call struct {
	method      string
	segments    []string
	body        io.Reader
	contentType string
	accept      string
	timeout     time.Duration
}

func (r call) op() string {
	return r.method + " /" + strings.Join(r.segments, "/")
}

// send performs one round trip and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, r call) ([]byte, http.Header, error) {
	endpoint, err := c.endpoint(r.segments...)
	if err != nil {
		return nil, nil, err
	}

	reqCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, r.method, endpoint, r.body)
	if err != nil {
		return nil, nil, fmt.Errorf("backend request: new request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	accept := r.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, classifyTransportError(ctx, reqCtx, r.op(), r.timeout, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, classifyTransportError(ctx, reqCtx, r.op(), r.timeout, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, resp.Header, newStatusError(r.method, "/"+strings.Join(r.segments, "/"), resp.StatusCode, payload, retryAfter)
	}
	return payload, resp.Header, nil
}

func classifyTransportError(parent, reqCtx context.Context, op string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("backend request: %s: %w", op, parent.Err())
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "backend", op, fmt.Sprintf("no response within %s", timeout), err)
	}
	return services.Wrap(services.ErrTransient, "backend", op, "request failed", err)
}

func decodeBody(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrValidation, "backend", "decode response", "unexpected response body", err)
	}
	return nil
}

// HealthCheck verifies the backend answers HTTP at all. Client errors still
// count as reachable; only transport failures and 5xx responses fail.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, _, err := c.send(ctx, call{method: http.MethodGet, segments: []string{"auth", "test"}, timeout: c.requestTimeout})
	if err == nil {
		return nil
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
		return nil
	}
	return err
}
