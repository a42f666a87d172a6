// Package reply talks to the chat backend: one POST per user message, a
// bounded timeout, and typed errors that callers turn into transcript lines.
package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sonnes/parley/compact"
)

const (
	// DefaultEndpoint is the backend chat route on a local install.
	DefaultEndpoint = "http://localhost:5000/api/chat"
	// DefaultTimeout bounds a single round trip.
	DefaultTimeout = 30 * time.Second
	// MaxMessageLength is the longest message the backend accepts.
	MaxMessageLength = compact.DefaultMaxLineLength

	tracerName = "github.com/sonnes/parley/reply"
)

var (
	// ErrMalformed is returned when the backend answers with a body that is
	// not the expected envelope.
	ErrMalformed = errors.New("malformed response")
	// ErrTimeout is returned when the round trip exceeds the client timeout.
	ErrTimeout = errors.New("request timed out")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// BackendError is a 2xx answer carrying success=false.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string { return e.Message }

type request struct {
	Message string `json:"message"`
}

type response struct {
	Success  bool    `json:"success"`
	Response *string `json:"response"`
	Error    string  `json:"error"`
}

// Client sends messages to the chat backend.
type Client struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	rewrite  func(string) string
	logger   *log.Logger
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRewrite transforms outgoing text before it is sent, e.g. redaction.
func WithRewrite(fn func(string) string) Option {
	return func(c *Client) { c.rewrite = fn }
}

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTracerProvider traces calls with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// NewClient creates a client for the given endpoint. An empty endpoint
// selects DefaultEndpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
		logger:   log.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

// Endpoint returns the chat URL the client posts to.
func (c *Client) Endpoint() string { return c.endpoint }

// Complete sends text and returns the backend's reply.
func (c *Client) Complete(ctx context.Context, text string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "reply.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", c.endpoint),
			attribute.Int("message.length", len(text)),
		))
	defer span.End()

	out, err := c.complete(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("reply.length", len(out)))
	return out, nil
}

func (c *Client) complete(ctx context.Context, text string) (string, error) {
	if c.rewrite != nil {
		text = c.rewrite(text)
	}
	text = compact.TruncateText(text, MaxMessageLength)

	body, err := json.Marshal(request{Message: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("backend replied", "status", resp.StatusCode, "bytes", len(respBody), "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp response
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return "", &StatusError{Code: resp.StatusCode, Message: errResp.Error}
		}
		return "", &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !apiResp.Success {
		msg := apiResp.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "", &BackendError{Message: msg}
	}
	if apiResp.Response == nil {
		return "", fmt.Errorf("%w: missing response field", ErrMalformed)
	}
	return *apiResp.Response, nil
}

// Send is Complete for display: it never fails. On error the returned text
// is an apology that names the cause and ok is false.
func (c *Client) Send(ctx context.Context, text string) (string, bool) {
	out, err := c.Complete(ctx, text)
	if err != nil {
		c.logger.Error("send message", "err", err)
		return FailureText(err), false
	}
	return out, true
}

// FailureText renders err as an assistant line.
func FailureText(err error) string {
	return fmt.Sprintf("Sorry, something went wrong: %v. Check that the backend service is running, or try again.", err)
}

// Health probes the backend's /api/health route on the endpoint's host.
func (c *Client) Health(ctx context.Context) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	u.Path = "/api/health"
	u.RawQuery = ""

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
