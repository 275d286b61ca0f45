// Package ecp is an HTTP client for the External Control Protocol served by
// the device on port 8060.
package ecp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/logger"
	"github.com/devicelab-dev/ecp-runner/pkg/uitree"
)

// DefaultPort is the ECP port.
const DefaultPort = 8060

// Defaults for ClientConfig fields left at zero.
const (
	DefaultRetries    = 3
	DefaultRetryDelay = 1000 * time.Millisecond
	DefaultTimeout    = 20 * time.Second
)

// ClientConfig tunes the transport.
type ClientConfig struct {
	// Retries is how many times a request is re-sent after it failed to
	// produce any HTTP status. Status codes are never retried.
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Response is the status and body of one device reply.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client issues ECP requests against one device.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
}

// NewClient creates a client for the device at host (IP or hostname, no port).
func NewClient(host string, cfg ClientConfig) *Client {
	return NewClientURL(fmt.Sprintf("http://%s:%d", host, DefaultPort), cfg)
}

// NewClientURL creates a client for an explicit base URL.
func NewClientURL(baseURL string, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
	}
}

// BaseURL returns the device URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path)
}

// Post sends a body-less POST request.
func (c *Client) Post(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodPost, path)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path)
}

// request sends one logical request, re-sending it up to c.retries times
// while no HTTP status comes back.
func (c *Client) request(ctx context.Context, method, path string) (*Response, error) {
	var resp *Response
	attempt := 0

	op := func() error {
		attempt++
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		httpResp, err := c.httpClient.Do(req)
		elapsed := time.Since(start)
		if err != nil {
			logger.Debug("%s %s [%v] ERROR (attempt %d): %v", method, path, elapsed, attempt, err)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		status := "OK"
		if httpResp.StatusCode >= 300 {
			status = fmt.Sprintf("ERR:%d", httpResp.StatusCode)
		}
		logger.Debug("%s %s [%v] %s", method, path, elapsed, status)

		resp = &Response{Status: httpResp.StatusCode, Body: body}
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.retries)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, core.ErrTransport.
			WithCause(err).
			WithDetails(map[string]interface{}{"method": method, "path": path, "attempts": attempt})
	}
	return resp, nil
}

// Command POSTs to a command endpoint. Any 2xx is success; everything else
// is a *core.CommandError carrying the status.
func (c *Client) Command(ctx context.Context, path string) (int, error) {
	resp, err := c.Post(ctx, path)
	if err != nil {
		return 0, err
	}
	if !resp.OK() {
		return resp.Status, &core.CommandError{Method: http.MethodPost, Path: path, Status: resp.Status}
	}
	return resp.Status, nil
}

// Query GETs a query endpoint and normalizes the XML body.
func (c *Client) Query(ctx context.Context, path string) (*uitree.Node, error) {
	raw, err := c.QueryRaw(ctx, path)
	if err != nil {
		return nil, err
	}
	return uitree.Parse(raw)
}

// QueryRaw GETs a query endpoint and returns the body unparsed.
func (c *Client) QueryRaw(ctx context.Context, path string) (string, error) {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &core.CommandError{Method: http.MethodGet, Path: path, Status: resp.Status}
	}
	return string(resp.Body), nil
}
