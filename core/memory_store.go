package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryCredentialStore is the in-process CredentialStore used as the
// zero-config default and as the test double. Writes involve no I/O, so the
// non-cancellable Put contract holds trivially: the store never consults the
// context after validation.
type MemoryCredentialStore struct {
	mu          sync.Mutex
	credentials map[string]Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{credentials: make(map[string]Credential)}
}

func (s *MemoryCredentialStore) Get(_ context.Context, serverKey string, username string) (Credential, bool, error) {
	if s == nil {
		return Credential{}, false, fmt.Errorf("core: credential store is not configured")
	}
	s.mu.Lock()
	credential, ok := s.credentials[memoryCredentialKey(serverKey, username)]
	s.mu.Unlock()
	return credential, ok, nil
}

func (s *MemoryCredentialStore) Put(_ context.Context, credential Credential) error {
	if s == nil {
		return fmt.Errorf("core: credential store is not configured")
	}
	if err := credential.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.credentials[memoryCredentialKey(credential.ServerKey, credential.Username)] = credential
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context, serverKey string, username string) error {
	if s == nil {
		return fmt.Errorf("core: credential store is not configured")
	}
	s.mu.Lock()
	delete(s.credentials, memoryCredentialKey(serverKey, username))
	s.mu.Unlock()
	return nil
}

func memoryCredentialKey(serverKey string, username string) string {
	return strings.TrimSpace(serverKey) + "::" + strings.TrimSpace(username)
}
