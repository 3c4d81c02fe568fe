package supabase

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepjoy/account-service/internal/identity"
)

const jwtSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTVerifier("", 0)
	assert.Error(t, err)
}

func TestJWTVerifier_VerifyToken(t *testing.T) {
	t.Parallel()

	v, err := NewJWTVerifier(jwtSecret, 0)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		wantErr bool
		wantSub string
	}{
		{
			name: "valid user token",
			token: signToken(t, jwt.SigningMethodHS256, []byte(jwtSecret), jwt.MapClaims{
				"sub": "u1", "aud": "authenticated", "role": "authenticated", "email": "u1@example.com", "exp": future,
			}),
			wantSub: "u1",
		},
		{
			name: "expired",
			token: signToken(t, jwt.SigningMethodHS256, []byte(jwtSecret), jwt.MapClaims{
				"sub": "u1", "aud": "authenticated", "role": "authenticated", "exp": past,
			}),
			wantErr: true,
		},
		{
			name: "anon key is not a user",
			token: signToken(t, jwt.SigningMethodHS256, []byte(jwtSecret), jwt.MapClaims{
				"aud": "authenticated", "role": "anon", "exp": future,
			}),
			wantErr: true,
		},
		{
			name: "wrong secret",
			token: signToken(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), jwt.MapClaims{
				"sub": "u1", "aud": "authenticated", "role": "authenticated", "exp": future,
			}),
			wantErr: true,
		},
		{
			name: "wrong audience",
			token: signToken(t, jwt.SigningMethodHS256, []byte(jwtSecret), jwt.MapClaims{
				"sub": "u1", "aud": "service", "role": "authenticated", "exp": future,
			}),
			wantErr: true,
		},
		{
			name: "missing expiry",
			token: signToken(t, jwt.SigningMethodHS256, []byte(jwtSecret), jwt.MapClaims{
				"sub": "u1", "aud": "authenticated", "role": "authenticated",
			}),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not-a-jwt",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			principal, err := v.VerifyToken(context.Background(), tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, identity.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, principal.ID)
		})
	}
}
