package core

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func testServer(id string) Server {
	return Server{
		ID:       id,
		BaseURL:  "https://media.example.test",
		Username: "viewer",
	}
}

func ptrTime(value time.Time) *time.Time {
	return &value
}

// stubTransport is a programmable LoginTransport that counts login calls.
type stubTransport struct {
	mu      sync.Mutex
	loginFn func(ctx context.Context, server Server, password string) (LoginResult, error)
	calls   atomic.Int64
}

func newStubTransport(fn func(ctx context.Context, server Server, password string) (LoginResult, error)) *stubTransport {
	return &stubTransport{loginFn: fn}
}

func (t *stubTransport) Login(ctx context.Context, server Server, password string) (LoginResult, error) {
	t.calls.Add(1)
	t.mu.Lock()
	fn := t.loginFn
	t.mu.Unlock()
	if fn == nil {
		return LoginResult{Token: "token-1", TTL: time.Hour}, nil
	}
	return fn(ctx, server, password)
}

func (t *stubTransport) loginCalls() int64 {
	return t.calls.Load()
}

func (t *stubTransport) setLoginFn(fn func(ctx context.Context, server Server, password string) (LoginResult, error)) {
	t.mu.Lock()
	t.loginFn = fn
	t.mu.Unlock()
}

// countingFactory builds lightweight handles and records how many builds ran.
type countingFactory struct {
	builds  atomic.Int64
	failErr error
}

func (f *countingFactory) Build(_ context.Context, server Server, tokenVersion int64, tokens *TokenProvider) (*ClientHandle, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.builds.Add(1)
	return &ClientHandle{
		server:       server,
		tokenVersion: tokenVersion,
		tokens:       tokens,
	}, nil
}

func unauthorizedStatusError() error {
	return goerrors.New("core: server rejected request", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized)
}

func serverFailureError() error {
	return goerrors.New("core: upstream exploded", goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway)
}

func newTestRig(transport LoginTransport) (*SessionState, *ClientCache, *MemoryCredentialStore, *Coordinator, *Executor) {
	state := NewSessionState()
	tokens := NewTokenProvider(state, DefaultConfig().Client)
	factory := &countingFactory{}
	cache, err := NewClientCache(state, factory, tokens)
	if err != nil {
		panic(err)
	}
	state.AddObserver(cache)
	credentials := NewMemoryCredentialStore()
	coordinator, err := NewCoordinator(state, cache, credentials, transport, DefaultConfig().Auth, nil, nil)
	if err != nil {
		panic(err)
	}
	executor, err := NewExecutor(cache, coordinator, nil, nil)
	if err != nil {
		panic(err)
	}
	return state, cache, credentials, coordinator, executor
}
