package auth0

import (
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
	"golang.org/x/oauth2/clientcredentials"

	"github.com/keepjoy/account-service/internal/identity"
)

// ManagementConfig holds the machine-to-machine application used for admin calls.
type ManagementConfig struct {
	Domain       string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

// ManagementClient calls the Auth0 Management API with client-credential tokens.
type ManagementClient struct {
	domain     string
	httpClient *http.Client
}

// NewManagementClient validates cfg. Tokens are fetched lazily and reused until expiry.
func NewManagementClient(cfg ManagementConfig) (*ManagementClient, error) {
	domain := strings.TrimSuffix(strings.TrimSpace(cfg.Domain), "/")
	if domain == "" || !strings.HasPrefix(domain, "http") {
		return nil, fmt.Errorf("auth0: invalid domain %q", cfg.Domain)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("auth0: client credentials config incomplete")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	cc := clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       domain + "/oauth/token",
		EndpointParams: url.Values{"audience": {domain + "/api/v2/"}},
		AuthStyle:      oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &ManagementClient{
		domain: domain,
		httpClient: &http.Client{
			Timeout:   httpClient.Timeout,
			Transport: &oauth2.Transport{Source: cc.TokenSource(tokenCtx), Base: base},
		},
	}, nil
}

// DeleteUser removes the user with the given Auth0 user ID (e.g. auth0|123).
func (c *ManagementClient) DeleteUser(ctx context.Context, id string) error {
	endpoint := c.domain + "/api/v2/users/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("auth0: build delete request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth0: delete user: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(res.Body, 8<<10)).Decode(&payload)
	detail := payload.Message
	if detail == "" {
		detail = payload.Error
	}
	if detail == "" {
		detail = http.StatusText(res.StatusCode)
	}
	return &identity.RejectedError{Op: "delete user", Status: res.StatusCode, Detail: detail}
}
