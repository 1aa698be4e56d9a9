package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestTimeout caps every backend call. Timeout is the only cancellation
// mechanism; an expired call surfaces as a network-classified error.
const RequestTimeout = 10 * time.Second

const maxBodyBytes = 1 << 20

// TokenSource supplies the current bearer token, or "" when unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is the single shared sender for all backend requests. It attaches
// the bearer token when one is available, keeps a cookie jar for the
// session-cookie fallback, and classifies every failure into an *Error.
type Client struct {
	base    string
	http    *http.Client
	tokens  TokenSource
	onAuth  func()
	observe func(method, route string, status int, d time.Duration)
}

type Option func(*Client)

// WithTokenSource makes the client attach "Authorization: Bearer <token>".
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithAuthFailureHook registers the callback fired on every 401/403 before
// the error reaches the caller. Callers never need their own 401 branch.
func WithAuthFailureHook(fn func()) Option {
	return func(c *Client) { c.onAuth = fn }
}

// WithObserver registers a latency observer for every completed call. The
// route is the endpoint's path template, not the concrete path, so it is
// safe as a metric label. A network failure is reported with status 0.
func WithObserver(fn func(method, route string, status int, d time.Duration)) Option {
	return func(c *Client) { c.observe = fn }
}

// WithHTTPClient overrides the underlying transport, keeping the fixed
// request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		hc.Timeout = RequestTimeout
		c.http = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: RequestTimeout,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// GoogleLoginURL is the OAuth entry point. It is navigated to by the
// browser, never fetched by this client.
func (c *Client) GoogleLoginURL() string {
	return c.base + "/auth/google/login"
}

func (c *Client) do(ctx context.Context, method, route, path string, query url.Values, body, out any) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, target, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if c.observe != nil {
			c.observe(method, route, 0, time.Since(start))
		}
		log.Printf("[WARN] api: network error on %s %s: %v", method, target, err)
		return &Error{Kind: KindNetwork, Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if c.observe != nil {
		c.observe(method, route, resp.StatusCode, time.Since(start))
	}

	if apiErr := c.classify(method, target, resp.StatusCode, respBody); apiErr != nil {
		return apiErr
	}
	if readErr != nil {
		return &Error{Kind: KindNetwork, Method: method, URL: target, Err: readErr}
	}

	if out != nil && len(respBody) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("api: decode %s %s: %w", method, target, err)
		}
	}
	return nil
}

// classify maps a response status to the error taxonomy. Auth failures fire
// the registered hook here, before the error propagates.
func (c *Client) classify(method, target string, status int, body []byte) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		log.Printf("[WARN] api: authentication failure on %s %s (status %d)", method, target, status)
		if c.onAuth != nil {
			c.onAuth()
		}
		return &Error{Kind: KindAuth, Status: status, Method: method, URL: target, Body: body}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Method: method, URL: target, Body: body}
	case status >= 500:
		log.Printf("[ERROR] api: server error: method=%s url=%s status=%d body=%s", method, target, status, truncate(body, 512))
		return &Error{Kind: KindServer, Status: status, Method: method, URL: target, Body: body}
	default:
		return &Error{Kind: KindHTTP, Status: status, Method: method, URL: target, Body: body}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
