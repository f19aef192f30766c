// Package api implements the typed HTTP client for the medchat backend.
//
// All calls are single-attempt request/response: failures surface as a
// *Error carrying the HTTP status and message, logged by category. The
// client performs no retries and no token refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the fixed request timeout after which a call fails
// as a network error.
const DefaultTimeout = 15 * time.Second

// maxResponseSize bounds response bodies read into memory.
const maxResponseSize = 10 * 1024 * 1024

// Sentinel errors matched with errors.Is.
var (
	// ErrUnauthorized indicates a 401 response.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates a 403 response.
	ErrForbidden = errors.New("forbidden")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")

	// ErrNetwork indicates a transport failure or timeout; no response
	// was received.
	ErrNetwork = errors.New("network error")
)

// Error represents a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}

// Unwrap maps the status onto the matching sentinel.
func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status >= 500:
		return ErrServer
	}
	return nil
}

// errorBody is the backend's error response envelope.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client is a configured request sender for the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// SetToken installs the bearer token used on subsequent requests.
// An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues a JSON request and decodes a 2xx response body into dest
// (when dest is non-nil). Non-2xx responses and transport failures are
// logged by category and returned as errors.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().
			Str("method", method).
			Str("path", path).
			Str("category", "network error").
			Err(err).
			Msg("api request failed")
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.interceptError(method, path, resp.StatusCode, raw)
	}

	if dest == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// interceptError converts a non-2xx response into a *Error and logs its
// category. It always re-signals the failure upward; nothing is
// swallowed here.
func (c *Client) interceptError(method, path string, status int, raw []byte) error {
	var eb errorBody
	message := ""
	if err := json.Unmarshal(raw, &eb); err == nil {
		message = eb.Message
		if message == "" {
			message = eb.Error
		}
	}
	apiErr := &Error{Status: status, Message: message}

	var category string
	switch {
	case status == http.StatusUnauthorized:
		category = "unauthorized"
	case status == http.StatusForbidden:
		category = "forbidden"
	case status >= 500:
		category = "server error"
	default:
		category = "other"
	}

	c.log.Error().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Str("category", category).
		Msg("api request failed")

	return apiErr
}
