package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-mediaclient/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const credentialCacheKeyPrefix = "go-mediaclient::credential::v1"

// CachedCredentialStore puts a read-through cache in front of a credential
// store. Reads happen on every reauthentication, writes only on successful
// logins, so the cache is invalidated on Put and Clear rather than expiring
// reads.
type CachedCredentialStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
}

type cachedCredential struct {
	Credential core.Credential
	Found      bool
}

func NewCachedCredentialStore(
	base core.CredentialStore,
	cacheService repositorycache.CacheService,
) (*CachedCredentialStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: credential cache service is required")
	}
	return &CachedCredentialStore{base: base, cache: cacheService}, nil
}

// CredentialCacheKey returns the deterministic cache key contract for
// credential reads: go-mediaclient::credential::v1::<server_key>::<username>
// with each segment URL-path escaped.
func CredentialCacheKey(serverKey string, username string) (string, error) {
	serverKey = strings.TrimSpace(serverKey)
	username = strings.TrimSpace(username)
	if serverKey == "" || username == "" {
		return "", fmt.Errorf("sqlstore: server key and username are required")
	}
	return strings.Join([]string{
		credentialCacheKeyPrefix,
		url.PathEscape(serverKey),
		url.PathEscape(username),
	}, "::"), nil
}

func (s *CachedCredentialStore) Get(ctx context.Context, serverKey string, username string) (core.Credential, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, false, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	cacheKey, err := CredentialCacheKey(serverKey, username)
	if err != nil {
		return core.Credential{}, false, err
	}

	cached, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedCredential, error) {
		credential, found, fetchErr := s.base.Get(ctx, serverKey, username)
		if fetchErr != nil {
			return cachedCredential{}, fetchErr
		}
		return cachedCredential{Credential: credential, Found: found}, nil
	})
	if err != nil {
		return core.Credential{}, false, err
	}
	return cached.Credential, cached.Found, nil
}

func (s *CachedCredentialStore) Put(ctx context.Context, credential core.Credential) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	if err := s.base.Put(ctx, credential); err != nil {
		return err
	}
	return s.dropCached(ctx, credential.ServerKey, credential.Username)
}

func (s *CachedCredentialStore) Clear(ctx context.Context, serverKey string, username string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	if err := s.base.Clear(ctx, serverKey, username); err != nil {
		return err
	}
	return s.dropCached(ctx, serverKey, username)
}

func (s *CachedCredentialStore) dropCached(ctx context.Context, serverKey string, username string) error {
	cacheKey, err := CredentialCacheKey(serverKey, username)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.CredentialStore = (*CachedCredentialStore)(nil)
