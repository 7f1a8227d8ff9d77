package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	credentialStatusActive  = "active"
	credentialStatusRevoked = "revoked"
)

type credentialRecord struct {
	bun.BaseModel `bun:"table:media_credentials,alias:mcr"`

	ID                string    `bun:"id,pk"`
	ServerKey         string    `bun:"server_key,notnull"`
	Username          string    `bun:"username,notnull"`
	Version           int       `bun:"version,notnull"`
	EncryptedPassword []byte    `bun:"encrypted_password,notnull"`
	Status            string    `bun:"status,notnull"`
	EncryptionKeyID   string    `bun:"encryption_key_id,notnull"`
	EncryptionVersion int       `bun:"encryption_version,notnull"`
	RevocationReason  string    `bun:"revocation_reason,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
