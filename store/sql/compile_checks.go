package sqlstore

import "github.com/goliatone/go-mediaclient/core"

var (
	_ core.CredentialStore            = (*CredentialStore)(nil)
	_ core.CredentialStore            = (*CachedCredentialStore)(nil)
	_ core.CredentialStoreProvider    = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory     = (*RepositoryFactory)(nil)
	_ core.SecretProviderConfigurator = (*RepositoryFactory)(nil)
)
