package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ServerRegistry holds the immutable server identities this process is
// connected to. Registering the same key with a different base URL or
// username is rejected: an identity mismatch is a distinct server, never an
// update.
type ServerRegistry struct {
	mu      sync.RWMutex
	servers map[string]Server
}

func NewServerRegistry() *ServerRegistry {
	return &ServerRegistry{servers: make(map[string]Server)}
}

func (r *ServerRegistry) Register(server Server) error {
	if r == nil {
		return fmt.Errorf("core: server registry is nil")
	}
	if err := server.Validate(); err != nil {
		return NewConfigurationError("core: cannot register invalid server", err)
	}
	key := server.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, exists := r.servers[key]; exists {
		if existing.BaseURL != server.BaseURL || existing.Username != server.Username {
			return NewConfigurationError(
				fmt.Sprintf("core: server %q already registered with a different identity", key), nil,
			)
		}
		return nil
	}
	r.servers[key] = server
	return nil
}

func (r *ServerRegistry) Get(serverKey string) (Server, bool) {
	key := strings.TrimSpace(serverKey)
	if r == nil || key == "" {
		return Server{}, false
	}
	r.mu.RLock()
	server, ok := r.servers[key]
	r.mu.RUnlock()
	return server, ok
}

func (r *ServerRegistry) Remove(serverKey string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.servers, strings.TrimSpace(serverKey))
	r.mu.Unlock()
}

func (r *ServerRegistry) List() []Server {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	keys := make([]string, 0, len(r.servers))
	for key := range r.servers {
		keys = append(keys, key)
	}
	servers := make([]Server, 0, len(keys))
	sort.Strings(keys)
	for _, key := range keys {
		servers = append(servers, r.servers[key])
	}
	r.mu.RUnlock()
	return servers
}
