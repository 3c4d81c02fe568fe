package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// StaticDirectory serves users and their tokens from a JSON fixture for local development.
type StaticDirectory struct {
	mu      sync.RWMutex
	users   map[string]User
	byToken map[string]string
}

// NewStaticDirectory parses the provided JSON payload and stores users in memory.
func NewStaticDirectory(data []byte) (*StaticDirectory, error) {
	type doc struct {
		Users []User `json:"users"`
	}
	var parsed doc
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("identity: parse fixture: %w", err)
	}

	dir := &StaticDirectory{
		users:   make(map[string]User, len(parsed.Users)),
		byToken: make(map[string]string),
	}
	for _, u := range parsed.Users {
		if u.ID == "" {
			return nil, errors.New("identity: fixture contains user without id")
		}
		if _, dup := dir.users[u.ID]; dup {
			return nil, fmt.Errorf("identity: fixture contains duplicate user %q", u.ID)
		}
		for _, tok := range u.Tokens {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if owner, taken := dir.byToken[tok]; taken {
				return nil, fmt.Errorf("identity: token shared by %q and %q", owner, u.ID)
			}
			dir.byToken[tok] = u.ID
		}
		dir.users[u.ID] = u
	}
	return dir, nil
}

// VerifyToken resolves a fixture token to its owner.
func (d *StaticDirectory) VerifyToken(_ context.Context, token string) (*Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byToken[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	user := d.users[id]
	return &Principal{ID: user.ID, Email: user.Email, Role: "authenticated"}, nil
}

// DeleteUser removes the user and revokes every token it held.
func (d *StaticDirectory) DeleteUser(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[id]
	if !ok {
		return &RejectedError{Op: "delete user", Status: http.StatusNotFound, Detail: "User not found", Err: ErrNotFound}
	}
	for _, tok := range user.Tokens {
		delete(d.byToken, strings.TrimSpace(tok))
	}
	delete(d.users, id)
	return nil
}

// GetUser returns a copy of the user with the given ID.
func (d *StaticDirectory) GetUser(_ context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
