// Package botapi is a typed client for the moderation bot's REST API.
package botapi

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
	"time"

	simplejson "github.com/bitly/go-simplejson"
)

var (
	ErrUnauthorized = errors.New("bot api: unauthorized")
	ErrBotNotReady  = errors.New("bot api: bot not ready")
	ErrInvalidPIN   = errors.New("bot api: invalid pin")
)

// APIError is a non-2xx response other than 401 and exhausted 503s.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bot api: %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the bot.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the bot API. A zero-token Client can only log in; use As to
// get a copy bound to a session token.
type Client struct {
	baseURL    string
	http       *http.Client
	token      string
	retries    int
	retryDelay time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets how often a GET answered with 503 is retried, and the wait
// between attempts.
func WithRetry(retries int, delay time.Duration) Option {
	return func(c *Client) {
		if retries < 0 {
			retries = 0
		}
		c.retries = retries
		c.retryDelay = delay
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: timeout},
		retries:    3,
		retryDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// As returns a copy of the client that authenticates with token.
func (c *Client) As(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do sends one API call. GETs answered with 503 are retried up to c.retries
// times; the wait honours ctx.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bot api: encoding %s %s: %w", method, path, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	for attempt := 1; ; attempt++ {
		status, data, err := c.send(ctx, method, target, payload)
		if err != nil {
			return err
		}

		switch {
		case status == http.StatusServiceUnavailable:
			if attempt >= attempts {
				return fmt.Errorf("%w: %s", ErrBotNotReady, errorMessage(status, data))
			}
			slog.Debug("bot not ready, retrying", "path", path, "attempt", attempt, "delay", c.retryDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		case status == http.StatusUnauthorized:
			return ErrUnauthorized
		case status == http.StatusNoContent:
			return nil
		case status < 200 || status >= 300:
			return &APIError{Status: status, Message: errorMessage(status, data)}
		}

		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("bot api: decoding %s %s: %w", method, path, err)
		}
		return nil
	}
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("bot api: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("bot api: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("bot api: reading response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// errorMessage pulls a readable message out of an error body. The bot uses
// {"error": "..."} but some proxies answer {"error": {"message": "..."}}.
func errorMessage(status int, body []byte) string {
	if js, err := simplejson.NewJson(body); err == nil {
		if s, err := js.Get("error").String(); err == nil && s != "" {
			return s
		}
		if s, err := js.GetPath("error", "message").String(); err == nil && s != "" {
			return s
		}
		if s, err := js.Get("message").String(); err == nil && s != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
