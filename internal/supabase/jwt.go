package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keepjoy/account-service/internal/identity"
)

// AuthenticatedRole is the role claim carried by signed-in user tokens.
const AuthenticatedRole = "authenticated"

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTVerifier validates project access tokens locally with the shared JWT secret,
// avoiding a round trip to the auth server.
type JWTVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewJWTVerifier returns a verifier for HS256 tokens signed with secret.
func NewJWTVerifier(secret string, leeway time.Duration) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("supabase: jwt secret is required")
	}
	return &JWTVerifier{secret: []byte(secret), leeway: leeway}, nil
}

// VerifyToken checks signature, expiry, audience and role.
func (v *JWTVerifier) VerifyToken(_ context.Context, token string) (*identity.Principal, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AuthenticatedRole),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	if claims.Role != AuthenticatedRole {
		return nil, fmt.Errorf("%w: role %q", identity.ErrInvalidToken, claims.Role)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", identity.ErrInvalidToken)
	}
	return &identity.Principal{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
