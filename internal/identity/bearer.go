package identity

import (
	"errors"
	"strings"
)

// ErrMissingAuthorization is returned by ParseBearer for an empty header.
var ErrMissingAuthorization = errors.New("identity: missing Authorization header")

// ParseBearer extracts the token from the standard Authorization header value.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingAuthorization
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
