package deletion

import (
	"context"
	"sync"

	"github.com/keepjoy/account-service/internal/identity"
)

type fakeVerifier struct {
	mu       sync.Mutex
	tokens   map[string]*identity.Principal
	err      error
	calls    int
	panicMsg string
}

func (f *fakeVerifier) VerifyToken(_ context.Context, token string) (*identity.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.tokens[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return p, nil
}

func (f *fakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDeleter struct {
	mu    sync.Mutex
	err   error
	ids   []string
	calls int
}

func (f *fakeDeleter) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ids = append(f.ids, id)
	return f.err
}

func (f *fakeDeleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newFakes() (*fakeVerifier, *fakeDeleter) {
	return &fakeVerifier{tokens: map[string]*identity.Principal{
		"T1": {ID: "u1", Email: "u1@example.com"},
		"T2": {ID: "u2"},
		"TX": {ID: ""},
	}}, &fakeDeleter{}
}
