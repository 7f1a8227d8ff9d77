package sqlstore_test

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/goliatone/go-mediaclient/core"
	mediamigrations "github.com/goliatone/go-mediaclient/migrations"
	"github.com/goliatone/go-mediaclient/security"
	sqlstore "github.com/goliatone/go-mediaclient/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-mediaclient-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"media_credentials",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "media_credentials" {
		t.Fatalf("expected media_credentials table, got %q", tableName)
	}
}

func TestCredentialStore_PutGetRoundTripEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory := newTestFactory(t, client)
	store := factory.CredentialStore()

	if err := store.Put(ctx, core.Credential{
		ServerKey: "srv_1",
		Username:  "viewer",
		Password:  "hunter2",
	}); err != nil {
		t.Fatalf("put credential: %v", err)
	}

	credential, found, err := store.Get(ctx, "srv_1", "viewer")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if !found {
		t.Fatalf("expected stored credential")
	}
	if credential.Password != "hunter2" {
		t.Fatalf("expected decrypted password, got %q", credential.Password)
	}

	// The raw row must never contain the plaintext password.
	var encrypted []byte
	if err := client.DB().NewRaw(
		"SELECT encrypted_password FROM media_credentials WHERE server_key = ? AND username = ? AND status = 'active'",
		"srv_1", "viewer",
	).Scan(ctx, &encrypted); err != nil {
		t.Fatalf("query raw credential row: %v", err)
	}
	if bytes.Contains(encrypted, []byte("hunter2")) {
		t.Fatalf("expected password encrypted at rest")
	}
	if !bytes.HasPrefix(encrypted, []byte("mediaclient.secret.v1:")) {
		t.Fatalf("expected envelope prefix on stored payload, got %q", encrypted[:min(len(encrypted), 32)])
	}
}

func TestCredentialStore_PutRotatesVersions(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory := newTestFactory(t, client)
	store := factory.CredentialStore()

	for _, password := range []string{"first-password", "second-password"} {
		if err := store.Put(ctx, core.Credential{
			ServerKey: "srv_1",
			Username:  "viewer",
			Password:  password,
		}); err != nil {
			t.Fatalf("put %q: %v", password, err)
		}
	}

	credential, found, err := store.Get(ctx, "srv_1", "viewer")
	if err != nil || !found {
		t.Fatalf("get credential: found=%t err=%v", found, err)
	}
	if credential.Password != "second-password" {
		t.Fatalf("expected latest password, got %q", credential.Password)
	}

	type versionRow struct {
		Version int    `bun:"version"`
		Status  string `bun:"status"`
		Reason  string `bun:"revocation_reason"`
	}
	var rows []versionRow
	if err := client.DB().NewRaw(
		"SELECT version, status, revocation_reason FROM media_credentials WHERE server_key = ? AND username = ? ORDER BY version",
		"srv_1", "viewer",
	).Scan(ctx, &rows); err != nil {
		t.Fatalf("query version rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(rows))
	}
	if rows[0].Status != "revoked" || rows[0].Reason != "rotated" {
		t.Fatalf("expected version 1 revoked as rotated, got %+v", rows[0])
	}
	if rows[1].Version != 2 || rows[1].Status != "active" {
		t.Fatalf("expected version 2 active, got %+v", rows[1])
	}
}

func TestCredentialStore_ClearRevokesActive(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory := newTestFactory(t, client)
	store := factory.CredentialStore()

	if err := store.Put(ctx, core.Credential{
		ServerKey: "srv_1",
		Username:  "viewer",
		Password:  "hunter2",
	}); err != nil {
		t.Fatalf("put credential: %v", err)
	}
	if err := store.Clear(ctx, "srv_1", "viewer"); err != nil {
		t.Fatalf("clear credential: %v", err)
	}

	if _, found, err := store.Get(ctx, "srv_1", "viewer"); err != nil || found {
		t.Fatalf("expected no active credential after clear, found=%t err=%v", found, err)
	}

	var reason string
	if err := client.DB().NewRaw(
		"SELECT revocation_reason FROM media_credentials WHERE server_key = ? AND username = ? AND status = 'revoked'",
		"srv_1", "viewer",
	).Scan(ctx, &reason); err != nil {
		t.Fatalf("query revoked row: %v", err)
	}
	if reason != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials revocation, got %q", reason)
	}
}

func TestCredentialStore_GetMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory := newTestFactory(t, client)
	if _, found, err := factory.CredentialStore().Get(ctx, "srv_unknown", "viewer"); err != nil || found {
		t.Fatalf("expected clean miss, found=%t err=%v", found, err)
	}
}

func TestCredentialStore_PairsAreIndependent(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory := newTestFactory(t, client)
	store := factory.CredentialStore()

	pairs := []core.Credential{
		{ServerKey: "srv_1", Username: "viewer", Password: "password-one"},
		{ServerKey: "srv_1", Username: "admin", Password: "password-two"},
		{ServerKey: "srv_2", Username: "viewer", Password: "password-three"},
	}
	for _, credential := range pairs {
		if err := store.Put(ctx, credential); err != nil {
			t.Fatalf("put %s/%s: %v", credential.ServerKey, credential.Username, err)
		}
	}
	if err := store.Clear(ctx, "srv_1", "viewer"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, found, _ := store.Get(ctx, "srv_1", "viewer"); found {
		t.Fatalf("expected srv_1/viewer cleared")
	}
	for _, expect := range pairs[1:] {
		credential, found, err := store.Get(ctx, expect.ServerKey, expect.Username)
		if err != nil || !found {
			t.Fatalf("get %s/%s: found=%t err=%v", expect.ServerKey, expect.Username, found, err)
		}
		if credential.Password != expect.Password {
			t.Fatalf("unexpected password for %s/%s: %q", expect.ServerKey, expect.Username, credential.Password)
		}
	}
}

type staticLoginTransport struct{}

func (staticLoginTransport) Login(context.Context, core.Server, string) (core.LoginResult, error) {
	return core.LoginResult{Token: "token-1", TTL: time.Hour}, nil
}

func TestService_SecretProviderOptionReachesFactory(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	secrets, err := security.NewAppKeySecretProviderFromString("integration-test-key")
	if err != nil {
		t.Fatalf("new secret provider: %v", err)
	}
	factory := sqlstore.NewRepositoryFactory(nil)

	service, err := core.NewService(core.DefaultConfig(),
		core.WithLoginTransport(staticLoginTransport{}),
		core.WithRepositoryFactory(factory),
		core.WithPersistenceClient(client),
		core.WithSecretProvider(secrets),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if factory.CredentialStore() == nil {
		t.Fatalf("expected credential store built with the injected secret provider")
	}

	server := core.Server{ID: "srv_1", BaseURL: "https://media.example.com", Username: "viewer"}
	if _, err := service.Connect(ctx, server, "hunter2"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	var encrypted []byte
	if err := client.DB().NewRaw(
		"SELECT encrypted_password FROM media_credentials WHERE server_key = ? AND username = ? AND status = 'active'",
		server.Key(), "viewer",
	).Scan(ctx, &encrypted); err != nil {
		t.Fatalf("query raw credential row: %v", err)
	}
	if bytes.Contains(encrypted, []byte("hunter2")) {
		t.Fatalf("expected password encrypted at rest")
	}
	if !bytes.HasPrefix(encrypted, []byte("mediaclient.secret.v1:")) {
		t.Fatalf("expected envelope prefix on stored payload")
	}
}

func newTestFactory(t *testing.T, client *persistence.Client) *sqlstore.RepositoryFactory {
	t.Helper()
	secrets, err := security.NewAppKeySecretProviderFromString("integration-test-key")
	if err != nil {
		t.Fatalf("new secret provider: %v", err)
	}
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, secrets)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	return factory
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:mediaclient-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = mediamigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != mediamigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, mediamigrations.WithValidationTargets(mediamigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
