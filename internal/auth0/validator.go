package auth0

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/keepjoy/account-service/internal/identity"
)

// Option configures the Verifier.
type Option func(v *verifierOptions)

type verifierOptions struct {
	httpClient *http.Client
}

// WithHTTPClient configures a custom HTTP client used for discovery and JWKS retrieval.
func WithHTTPClient(c *http.Client) Option {
	return func(v *verifierOptions) {
		v.httpClient = c
	}
}

// Verifier validates Auth0-issued access tokens for one API audience.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier runs OIDC discovery against the tenant. Domain must be the Auth0 tenant
// base URL (e.g. https://tenant.region.auth0.com).
func NewVerifier(ctx context.Context, domain, audience string, opts ...Option) (*Verifier, error) {
	domain = strings.TrimSuffix(domain, "/")
	if domain == "" || !strings.HasPrefix(domain, "http") {
		return nil, fmt.Errorf("auth0: invalid domain %q", domain)
	}
	if audience == "" {
		return nil, errors.New("auth0: audience is required")
	}

	o := verifierOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	// The key set keeps this context for later refreshes, so it must outlive ctx.
	providerCtx := oidc.ClientContext(context.WithoutCancel(ctx), o.httpClient)
	provider, err := oidc.NewProvider(providerCtx, domain+"/")
	if err != nil {
		return nil, fmt.Errorf("auth0: oidc discovery: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

// VerifyToken checks signature, issuer, audience and expiry.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*identity.Principal, error) {
	tok, err := v.verifier.Verify(ctx, token)
	if err != nil {
		if ctx.Err() != nil || isKeyFetchError(err) {
			return nil, fmt.Errorf("auth0: verify token: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", identity.ErrInvalidToken, err)
	}
	if tok.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", identity.ErrInvalidToken)
	}
	return &identity.Principal{ID: tok.Subject, Email: claims.Email}, nil
}

// go-oidc flattens key set failures into the verify error text, so an unreachable
// JWKS endpoint is only recognisable by its message.
func isKeyFetchError(err error) bool {
	return strings.Contains(err.Error(), "fetching keys")
}
