// Package apiclient talks to the remote helpdesk HTTP/JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the API root of a local development server
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultTimeout bounds every request unless overridden
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 4 << 20
)

// Client is a helpdesk API client. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	logger    *zap.Logger
	userAgent string
	timeout   time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each request; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{},
		logger:    zap.NewNop(),
		userAgent: "helpdesk-cli",
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// request describes one API call
type request struct {
	method string
	path   string
	token  string
	body   any
	out    any
}

// do sends req and decodes a successful response into req.out. Failures come
// back as *Error carrying the parsed error body.
func (c *Client) do(ctx context.Context, req request) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimLeft(req.path, "/")})

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("API request failed",
			zap.String("request_id", requestID),
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return &Error{
			Kind:      KindNetwork,
			Message:   "Network error. Please try again.",
			RequestID: requestID,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{
			Kind:      KindNetwork,
			Status:    resp.StatusCode,
			Message:   "Network error. Please try again.",
			RequestID: requestID,
			Err:       err,
		}
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	}
	if resp.StatusCode >= 400 {
		c.logger.Debug("API request completed with error", fields...)
		parsed := parseErrorBody(data)
		return &Error{
			Kind:      kindForStatus(resp.StatusCode),
			Status:    resp.StatusCode,
			Message:   parsed.FirstMessage(http.StatusText(resp.StatusCode)),
			Fields:    parsed.Fields,
			RequestID: requestID,
			body:      parsed,
		}
	}
	c.logger.Debug("API request completed", fields...)

	if req.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, req.out); err != nil {
		return &Error{
			Kind:      KindServer,
			Status:    resp.StatusCode,
			Message:   "Unexpected response from server.",
			RequestID: requestID,
			Err:       err,
		}
	}
	return nil
}

// apiError returns err as *Error when it is one
func apiError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
