// Package supabase talks to the Supabase Auth (GoTrue) REST API.
package supabase

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

	"golang.org/x/oauth2"

	"github.com/keepjoy/account-service/internal/identity"
)

// Config holds the project URL and the keys issued for it.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	SoftDelete     bool
	HTTPClient     *http.Client
}

// Client verifies user tokens with the anonymous key and deletes users with the
// service-role key. The service-role key is only ever attached to admin calls.
type Client struct {
	baseURL    string
	softDelete bool
	public     *http.Client
	admin      *http.Client
}

// NewClient validates cfg and builds the public and admin HTTP clients.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	if base == "" || !strings.HasPrefix(base, "http") {
		return nil, fmt.Errorf("supabase: invalid project url %q", cfg.URL)
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase: anon key is required")
	}
	if cfg.ServiceRoleKey == "" {
		return nil, errors.New("supabase: service role key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	transport := httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	public := *httpClient
	public.Transport = &apiKeyTransport{key: cfg.AnonKey, base: transport}

	admin := *httpClient
	admin.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.ServiceRoleKey, TokenType: "Bearer"}),
		Base:   &apiKeyTransport{key: cfg.ServiceRoleKey, base: transport},
	}

	return &Client{
		baseURL:    base,
		softDelete: cfg.SoftDelete,
		public:     &public,
		admin:      &admin,
	}, nil
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// VerifyToken asks the auth server who the bearer token belongs to.
func (c *Client) VerifyToken(ctx context.Context, token string) (*identity.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	res, err := c.public.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: get user: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode >= 400 && res.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s", identity.ErrInvalidToken, readDetail(res))
	default:
		return nil, fmt.Errorf("supabase: get user: unexpected status %d", res.StatusCode)
	}

	var payload userResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("supabase: decode user: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: user response without id", identity.ErrInvalidToken)
	}
	return &identity.Principal{ID: payload.ID, Email: payload.Email, Role: payload.Role}, nil
}

// DeleteUser removes the user through the admin API.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	body, err := json.Marshal(map[string]bool{"should_soft_delete": c.softDelete})
	if err != nil {
		return fmt.Errorf("supabase: marshal delete request: %w", err)
	}
	endpoint := c.baseURL + "/auth/v1/admin/users/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.admin.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: delete user: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	return &identity.RejectedError{Op: "delete user", Status: res.StatusCode, Detail: readDetail(res)}
}

// readDetail extracts the human-readable message from a GoTrue error body.
func readDetail(res *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, s := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
			if s != "" {
				return s
			}
		}
	}
	return http.StatusText(res.StatusCode)
}

type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("apikey", t.key)
	return t.base.RoundTrip(r)
}
