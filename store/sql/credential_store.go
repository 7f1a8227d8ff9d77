package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-mediaclient/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// CredentialStore persists one password per (server, username) pair,
// encrypted at rest. Writes are versioned: a new Put revokes the previous
// active row and inserts the next version inside one transaction, so a crash
// between the two statements never leaves two active passwords.
type CredentialStore struct {
	db      *bun.DB
	repo    repository.Repository[*credentialRecord]
	secrets core.SecretProvider
}

func (s *CredentialStore) Get(ctx context.Context, serverKey string, username string) (core.Credential, bool, error) {
	if s == nil || s.repo == nil || s.secrets == nil {
		return core.Credential{}, false, fmt.Errorf("sqlstore: credential store is not configured")
	}
	serverKey = strings.TrimSpace(serverKey)
	username = strings.TrimSpace(username)
	if serverKey == "" || username == "" {
		return core.Credential{}, false, fmt.Errorf("sqlstore: server key and username are required")
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("server_key", "=", serverKey),
		repository.SelectBy("username", "=", username),
		repository.SelectBy("status", "=", credentialStatusActive),
		repository.OrderBy("version DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Credential{}, false, err
	}
	if len(records) == 0 {
		return core.Credential{}, false, nil
	}

	password, err := s.secrets.Decrypt(ctx, records[0].EncryptedPassword)
	if err != nil {
		return core.Credential{}, false, fmt.Errorf("sqlstore: decrypt stored password: %w", err)
	}
	return core.Credential{
		ServerKey: records[0].ServerKey,
		Username:  records[0].Username,
		Password:  string(password),
	}, true, nil
}

func (s *CredentialStore) Put(ctx context.Context, credential core.Credential) error {
	if s == nil || s.repo == nil || s.db == nil || s.secrets == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	if err := credential.Validate(); err != nil {
		return err
	}

	encrypted, err := s.secrets.Encrypt(ctx, []byte(credential.Password))
	if err != nil {
		return fmt.Errorf("sqlstore: encrypt password: %w", err)
	}

	keyID, keyVersion := s.encryptionMetadata()
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		nextVersion, versionErr := s.nextVersion(ctx, tx, credential.ServerKey, credential.Username)
		if versionErr != nil {
			return versionErr
		}

		_, updateErr := tx.NewUpdate().
			Model((*credentialRecord)(nil)).
			Set("status = ?", credentialStatusRevoked).
			Set("revocation_reason = ?", "rotated").
			Set("updated_at = ?", now).
			Where("server_key = ?", credential.ServerKey).
			Where("username = ?", credential.Username).
			Where("status = ?", credentialStatusActive).
			Exec(ctx)
		if updateErr != nil {
			return updateErr
		}

		record := &credentialRecord{
			ServerKey:         credential.ServerKey,
			Username:          credential.Username,
			Version:           nextVersion,
			EncryptedPassword: encrypted,
			Status:            credentialStatusActive,
			EncryptionKeyID:   keyID,
			EncryptionVersion: keyVersion,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		_, createErr := s.repo.CreateTx(ctx, tx, record)
		return createErr
	})
}

func (s *CredentialStore) Clear(ctx context.Context, serverKey string, username string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	serverKey = strings.TrimSpace(serverKey)
	username = strings.TrimSpace(username)
	if serverKey == "" || username == "" {
		return fmt.Errorf("sqlstore: server key and username are required")
	}

	_, err := s.db.NewUpdate().
		Model((*credentialRecord)(nil)).
		Set("status = ?", credentialStatusRevoked).
		Set("revocation_reason = ?", "invalid_credentials").
		Set("updated_at = ?", time.Now().UTC()).
		Where("server_key = ?", serverKey).
		Where("username = ?", username).
		Where("status = ?", credentialStatusActive).
		Exec(ctx)
	return err
}

func (s *CredentialStore) nextVersion(ctx context.Context, tx bun.Tx, serverKey string, username string) (int, error) {
	var maxVersion int
	if err := tx.NewSelect().
		Model((*credentialRecord)(nil)).
		ColumnExpr("COALESCE(MAX(version), 0)").
		Where("?TableAlias.server_key = ?", serverKey).
		Where("?TableAlias.username = ?", username).
		Scan(ctx, &maxVersion); err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func (s *CredentialStore) encryptionMetadata() (string, int) {
	type describedProvider interface {
		Metadata() (string, int)
	}
	if described, ok := s.secrets.(describedProvider); ok {
		keyID, version := described.Metadata()
		if strings.TrimSpace(keyID) != "" {
			return keyID, version
		}
	}
	return "app-key", 1
}
