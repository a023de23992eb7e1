// Package client implements the typed OurCity API operations. Every
// operation returns an Outcome instead of an error so callers always see a
// displayable message, and none of them read ambient session state:
// credentials are passed explicitly.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ourcity/ourcity-cli/internal/logging"
	"github.com/ourcity/ourcity-cli/transport"
)

const (
	msgConnection = "Could not connect to the server. Is it running?"
	msgNoSession  = "Not authenticated or session expired"
)

// Transport sends one request and returns the raw response.
// *transport.Client satisfies it.
type Transport interface {
	Do(ctx context.Context, method, path string, body any, creds transport.Credentials) (*transport.Response, error)
}

// Client is stateless between calls and safe for concurrent use.
type Client struct {
	transport Transport
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "client")
	}
}

// New creates a Client on top of t.
func New(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// send performs the request and converts transport errors into the
// package's error taxonomy.
func (c *Client) send(ctx context.Context, method, path string, body any, creds transport.Credentials) (*transport.Response, error) {
	resp, err := c.transport.Do(ctx, method, path, body, creds)
	if err == nil && resp == nil {
		err = errors.New("no response")
	}
	if err == nil {
		return resp, nil
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, transport.ErrUnreachable) {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrTransport, err)
}

// sendFailure builds the outcome for an error returned by send.
func sendFailure[T any](err error) Outcome[T] {
	if errors.Is(err, ErrConnection) {
		return fail[T](err, msgConnection)
	}
	return fail[T](err, errorOccurred(err))
}

// errorOccurred renders an arbitrary failure without the taxonomy prefix.
func errorOccurred(err error) string {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := multi.Unwrap(); len(errs) > 0 {
			err = errs[len(errs)-1]
		}
	}
	return "An error occurred: " + err.Error()
}

func unexpectedStatus[T any](code int, prefix string) Outcome[T] {
	return fail[T](&StatusError{Code: code}, fmt.Sprintf("%s with status code %d", prefix, code))
}

func decode[T any](resp *transport.Response) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrTransport, fmt.Errorf("decoding response: %w", err))
	}
	return v, nil
}
