package mediaclient

import "github.com/goliatone/go-mediaclient/core"

type Config = core.Config

type AuthConfig = core.AuthConfig

type ClientConfig = core.ClientConfig

type Option = core.Option

type Service = core.Service

type Server = core.Server
type Session = core.Session
type Credential = core.Credential
type LoginResult = core.LoginResult
type ReauthOutcome = core.ReauthOutcome
type TokenState = core.TokenState
type Operation = core.Operation

type CredentialStore = core.CredentialStore
type LoginTransport = core.LoginTransport
type SecretProvider = core.SecretProvider
type ClientFactory = core.ClientFactory
type SessionObserver = core.SessionObserver
type MetricsRecorder = core.MetricsRecorder
type JobEnqueuer = core.JobEnqueuer
type JobExecutionMessage = core.JobExecutionMessage

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithServerRegistry  = core.WithServerRegistry
	WithCredentialStore = core.WithCredentialStore
	WithLoginTransport  = core.WithLoginTransport
	WithClientFactory   = core.WithClientFactory
	WithSecretProvider  = core.WithSecretProvider

	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithJobEnqueuer       = core.WithJobEnqueuer
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
