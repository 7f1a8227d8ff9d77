package core

import (
	"context"
	"fmt"
	"sync"
)

// ClientCache maps a server identity to a constructed client handle. An entry
// is valid only while its token version equals the session's current version;
// staleness is detected lazily by version comparison, so in-flight handles
// never need eager teardown. The Coordinator additionally calls Invalidate
// right after a token change to dispose of sockets tied to the old token.
type ClientCache struct {
	mu      sync.Mutex
	entries map[string]*clientCacheEntry

	state   *SessionState
	factory ClientFactory
	tokens  *TokenProvider
}

type clientCacheEntry struct {
	mu     sync.Mutex
	handle *ClientHandle
}

func NewClientCache(state *SessionState, factory ClientFactory, tokens *TokenProvider) (*ClientCache, error) {
	if state == nil {
		return nil, fmt.Errorf("core: session state is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("core: client factory is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("core: token provider is required")
	}
	return &ClientCache{
		entries: make(map[string]*clientCacheEntry),
		state:   state,
		factory: factory,
		tokens:  tokens,
	}, nil
}

// Get returns a handle bound to the current token version, constructing one
// when the entry is absent or stale. Builds are serialized per server so
// concurrent callers share a single expensive construction; a construction
// failure is a configuration error and is not retried here.
func (c *ClientCache) Get(ctx context.Context, server Server) (*ClientHandle, error) {
	if c == nil || c.factory == nil {
		return nil, NewConfigurationError("core: client cache is not configured", nil)
	}

	version := c.state.Current(server).TokenVersion
	entry := c.entry(server)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.handle != nil && entry.handle.TokenVersion() == version {
		return entry.handle, nil
	}

	handle, err := c.factory.Build(ctx, server, version, c.tokens)
	if err != nil {
		return nil, err
	}
	entry.handle = handle
	return handle, nil
}

// Invalidate drops the cached handle for server. Safe to call at any time;
// the next Get rebuilds against the live token version.
func (c *ClientCache) Invalidate(server Server) {
	if c == nil {
		return
	}
	c.mu.Lock()
	entry, ok := c.entries[server.Key()]
	c.mu.Unlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.handle = nil
	entry.mu.Unlock()
}

// Forget removes the entry entirely (logout path).
func (c *ClientCache) Forget(server Server) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, server.Key())
	c.mu.Unlock()
}

// SessionChanged implements SessionObserver: any transition that bumps the
// token version makes lazily cached handles stale, which the version check in
// Get already covers, so only an explicit token change needs eager disposal.
func (c *ClientCache) SessionChanged(session Session) {
	if c == nil {
		return
	}
	c.mu.Lock()
	entry, ok := c.entries[session.Server.Key()]
	c.mu.Unlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	if entry.handle != nil && entry.handle.TokenVersion() != session.TokenVersion {
		entry.handle = nil
	}
	entry.mu.Unlock()
}

func (c *ClientCache) entry(server Server) *clientCacheEntry {
	key := server.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &clientCacheEntry{}
		c.entries[key] = entry
	}
	return entry
}
