// Package api is a thin HTTP client for the email-sorting service. It
// handles session authentication, JSON marshaling, and routes every call
// through the retry scheduler so throttling and transient network
// failures are absorbed transparently.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mailsort/internal/retry"
)

// sessionCookie is the cookie the service issues at login.
const sessionCookie = "session"

// Client talks to the email-sorting REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     retry.Policy
}

// NewClient creates a client for the service at baseURL. The token is the
// session token issued by the login flow; it credentials every request.
func NewClient(baseURL, token string, policy retry.Policy) *Client {
	if policy.Retryable == nil {
		policy.Retryable = Retryable
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		policy: policy,
	}
}

// SetTimeout overrides the per-request HTTP timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// get performs a GET and unmarshals the JSON response, with retry.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.call(ctx, http.MethodGet, path, nil, result)
}

// post performs a POST with an optional JSON body, with retry.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.call(ctx, http.MethodPost, path, body, result)
}

// delete performs a DELETE, with retry.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

// call wraps a single HTTP exchange in the retry policy. Only errors the
// policy's predicate marks transient (429, transport failures) are
// retried; everything else comes back on the first attempt.
func (c *Client) call(ctx context.Context, method, path string, body, result interface{}) error {
	_, err := retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.doOnce(ctx, method, path, body, result)
	})
	return err
}

// doOnce performs exactly one HTTP exchange and maps the outcome onto the
// error taxonomy.
func (c *Client) doOnce(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &TransportError{Method: method, Path: path, Err: readErr}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Method: method, Path: path}

	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Message: "session expired or not logged in"}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var envelope errorResponse
		msg := ""
		if json.Unmarshal(respBody, &envelope) == nil {
			msg = envelope.Error
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &APIError{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: msg,
		}
	}

	// No content to parse (e.g. 204 or fire-and-forget POSTs).
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}
