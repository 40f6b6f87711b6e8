// Package client implements a client for the moderator web API.
// Network errors and 5xx responses are retried, 4xx responses are returned right away.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/repeater"

	"github.com/umputun/moderator/lib/spamcheck"
)

// Client is a moderator API client, thread-safe.
type Client struct {
	Config
}

// Config defines client parameters
type Config struct {
	URL        string        // base url of the moderator server, i.e. http://localhost:8081
	HTTPClient *http.Client  // http client, default one with 5s timeout used if nil
	Retries    int           // number of attempts for each call, 1 if not set
	RetryDelay time.Duration // delay between attempts
	User       string        // basic auth user, "moderator" if password set and user is empty
	Password   string        // basic auth password, no auth if empty
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// errNoRetry stops repeater on client-side errors
var errNoRetry = errors.New("no retry")

// New makes a client with defaults applied.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.Password != "" && cfg.User == "" {
		cfg.User = "moderator"
	}
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	return &Client{Config: cfg}
}

// Moderate sends text to POST /moderate and returns the classification result.
func (c *Client) Moderate(ctx context.Context, text string) (spamcheck.Response, error) {
	resp := spamcheck.Response{}
	if err := c.do(ctx, http.MethodPost, "/moderate", spamcheck.Request{Text: text}, &resp); err != nil {
		return spamcheck.Response{}, fmt.Errorf("failed to moderate: %w", err)
	}
	return resp, nil
}

// Health calls GET /health and returns the liveness flag.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var resp struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return false, fmt.Errorf("failed to get health: %w", err)
	}
	return resp.OK, nil
}

// Stats calls GET /stats and returns the total number of requests handled by the server,
// this call included.
func (c *Client) Stats(ctx context.Context) (uint64, error) {
	var resp struct {
		RequestsTotal uint64 `json:"requests_total"`
	}
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to get stats: %w", err)
	}
	return resp.RequestsTotal, nil
}

// do makes a request with retries and decodes json response into res
func (c *Client) do(ctx context.Context, method, path string, body, res any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("can't marshal request: %w", err)
		}
	}

	var lastErr error
	err := repeater.NewDefault(c.Retries, c.RetryDelay).Do(ctx, func() error {
		lastErr = c.once(ctx, method, path, payload, res)
		var se *StatusError
		if errors.As(lastErr, &se) && se.Code < http.StatusInternalServerError {
			return errNoRetry
		}
		return lastErr
	}, errNoRetry)

	if lastErr != nil {
		return lastErr
	}
	return err
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, res any) error {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reqBody)
	if err != nil {
		return fmt.Errorf("can't make request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Password != "" {
		req.SetBasicAuth(c.User, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return fmt.Errorf("can't decode response: %w", err)
	}
	return nil
}
