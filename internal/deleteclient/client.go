// Package deleteclient calls the account deletion endpoint.
package deleteclient

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
)

// DefaultPath is where the server mounts the endpoint unless reconfigured.
const DefaultPath = "/functions/v1/delete-user"

// Client posts deletion requests on behalf of a signed-in user.
type Client struct {
	BaseURL    string
	Path       string
	HTTPClient *http.Client
}

// Response is the decoded endpoint reply.
type Response struct {
	StatusCode int    `json:"-"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	Details    string `json:"details,omitempty"`
}

// Err returns nil for a successful deletion and a descriptive error otherwise.
func (r *Response) Err() error {
	if r.StatusCode == http.StatusOK && r.Success {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = http.StatusText(r.StatusCode)
	}
	if r.Details != "" {
		msg += ": " + r.Details
	}
	return fmt.Errorf("deleteclient: status %d: %s", r.StatusCode, msg)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 20 * time.Second}
}

func (c *Client) endpoint(path string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("deleteclient: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("deleteclient: base url %q must be absolute", c.BaseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = ""
	return u.String(), nil
}

// Delete asks the service to delete userID using the caller's access token.
// Non-2xx replies are returned as a Response, not an error.
func (c *Client) Delete(ctx context.Context, token, userID string) (*Response, error) {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	endpoint, err := c.endpoint(path)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("deleteclient: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("deleteclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("deleteclient: call service: %w", err)
	}
	defer res.Body.Close()

	out := &Response{StatusCode: res.StatusCode}
	data, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("deleteclient: read response: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("deleteclient: decode response (status %d): %w", res.StatusCode, err)
		}
	}
	return out, nil
}

// WaitReady polls /healthz until the service answers with a 2xx status or attempts run out.
func (c *Client) WaitReady(ctx context.Context, attempts int, backoff time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	healthURL, err := c.endpoint("/healthz")
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return fmt.Errorf("deleteclient: build health request: %w", err)
		}
		res, err := c.httpClient().Do(req)
		if err == nil && res.StatusCode >= 200 && res.StatusCode < 300 {
			res.Body.Close()
			return nil
		}
		if err == nil {
			res.Body.Close()
			err = fmt.Errorf("healthz returned %d", res.StatusCode)
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown readiness error")
	}
	return fmt.Errorf("deleteclient: service not ready: %w", lastErr)
}
