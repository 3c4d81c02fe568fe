package identity

import (
	"context"
	"errors"
	"fmt"
)

// Verifier resolves a bearer credential to the principal it was issued to.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*Principal, error)
}

// Deleter permanently removes an account. Implementations hold elevated credentials
// that are never derived from request input.
type Deleter interface {
	DeleteUser(ctx context.Context, id string) error
}

// Directory is an identity store exposing both capabilities.
type Directory interface {
	Verifier
	Deleter
}

var (
	// ErrInvalidToken is returned when the store rejects a credential.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrNotFound is returned when a user cannot be located.
	ErrNotFound = errors.New("identity: user not found")
)

// RejectedError reports that the identity store answered but refused the operation.
// Detail is the store's human-readable message and is safe to return to callers.
type RejectedError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *RejectedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("identity: %s rejected (status %d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("identity: %s rejected: %s", e.Op, e.Detail)
}

func (e *RejectedError) Unwrap() error { return e.Err }
