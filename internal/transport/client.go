// Package transport issues JSON requests against the agent backend and
// normalizes failed responses into typed errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const contentTypeJSON = "application/json"

// Client sends JSON requests relative to a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	middleware []Middleware
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Transport is
// wrapped by any configured middleware.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMiddleware appends round-tripper interceptors. The first one added is
// the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithHeader sets a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(c.middleware) > 0 {
		hc := *c.httpClient
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc.Transport = Chain(base, c.middleware...)
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &NetworkError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	data := map[string]any{}
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		data = map[string]any{}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Body:       data,
	}
}

// statusText strips the numeric prefix from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
