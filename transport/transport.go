// Package transport issues JSON requests against the OurCity API over a
// single pooled HTTP client.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ourcity/ourcity-cli/internal/logging"
	"github.com/ourcity/ourcity-cli/internal/uuid"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultBackoff     = 500 * time.Millisecond
	defaultUserAgent   = "ourcity-cli/1.0"
	maxResponseBodyLen = 10 << 20

	// RequestIDHeader carries a per-request UUID for server-side correlation.
	RequestIDHeader = "X-Request-ID"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Cookies    []*http.Cookie
}

// Client sends requests relative to a fixed API endpoint. It is safe for
// concurrent use; the underlying connections are reused across calls.
type Client struct {
	endpoint  string
	http      *http.Client
	logger    *slog.Logger
	retries   int
	backoff   time.Duration
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default pooled http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
// Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRetries enables retrying idempotent requests (GET, PUT) when the
// server is unreachable or answers 5xx. The wait doubles after each attempt,
// starting at backoff. POST requests are never retried. Negative n is
// treated as zero.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithLogger sets the logger used for per-request debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "transport")
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func newHTTPClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 90 * time.Second
	return &http.Client{
		Timeout:   defaultTimeout,
		Transport: t,
	}
}

// New creates a Client for the given versioned endpoint, e.g.
// http://localhost:8000/apis/v1.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute URL", endpoint)
	}
	c := &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		http:      newHTTPClient(),
		logger:    logging.Discard(),
		backoff:   defaultBackoff,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the API root requests are resolved against.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// Do sends one request. path is relative to the endpoint and must already
// be escaped. body, when non-nil, is encoded as JSON. creds, when non-nil,
// are attached as cookies. A non-nil error means no HTTP response was
// obtained; any status code, including 4xx and 5xx, is returned as a
// Response.
func (c *Client) Do(ctx context.Context, method, path string, body any, creds Credentials) (*Response, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		payload = b
	}

	attempts := 1
	if idempotent(method) {
		attempts += c.retries
	}

	var (
		resp *Response
		err  error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s %s: %w", method, path, ctx.Err())
			case <-time.After(wait):
			}
		}

		resp, err = c.send(ctx, method, path, payload, creds, attempt+1)
		if err != nil {
			if isUnreachable(err) {
				err = fmt.Errorf("%s %s: %w: %w", method, path, ErrUnreachable, err)
				continue
			}
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.StatusCode >= 500 && attempt+1 < attempts {
			continue
		}
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%s %s: no attempt was made", method, path)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, creds Credentials, attempt int) (*Response, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, rdr)
	if err != nil {
		return nil, err
	}
	requestID := uuid.New()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	creds.apply(req)

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBodyLen))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", httpResp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", requestID),
		slog.Int("attempt", attempt),
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		Cookies:    httpResp.Cookies(),
	}, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}
