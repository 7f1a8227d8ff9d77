package core

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// CredentialStoreProvider exposes a built credential store from a repository
// factory (the sqlstore package implements this).
type CredentialStoreProvider interface {
	CredentialStore() CredentialStore
}

// RepositoryStoreFactory builds persistence-backed stores from a persistence
// client or *bun.DB.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (CredentialStoreProvider, error)
}

// SecretProviderConfigurator accepts the secret provider injected through
// WithSecretProvider before stores are built.
type SecretProviderConfigurator interface {
	UseSecretProvider(provider SecretProvider)
}

// Service is the composition root: it wires SessionState, TokenProvider,
// ClientCache, Coordinator, and Executor together from injected dependencies.
// One Service instance is constructed at startup and passed by reference to
// every caller; there is no ambient global state.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver

	registry    *ServerRegistry
	state       *SessionState
	tokens      *TokenProvider
	cache       *ClientCache
	coordinator *Coordinator
	executor    *Executor
	credentials CredentialStore
	transport   LoginTransport
	jobEnqueuer JobEnqueuer
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("mediaclient", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("mediaclient"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewServerRegistry()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.secretProvider != nil {
		configurator, ok := builder.repositoryFactory.(SecretProviderConfigurator)
		if !ok {
			return nil, mapBuildError(builder.errorMapper, NewConfigurationError(
				"core: secret provider requires a repository factory able to consume it", nil,
			))
		}
		configurator.UseSecretProvider(builder.secretProvider)
	}

	if builder.credentialStore == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.credentialStore = storeProvider.CredentialStore()
			}
		} else if storeProvider, ok := builder.repositoryFactory.(CredentialStoreProvider); ok {
			builder.credentialStore = storeProvider.CredentialStore()
		}
	}
	if builder.credentialStore == nil {
		builder.credentialStore = NewMemoryCredentialStore()
	}
	if builder.loginTransport == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: login transport is required"))
	}
	if builder.clientFactory == nil {
		builder.clientFactory = HTTPClientFactory{Timeout: finalConfig.Client.RequestTimeout}
	}

	state := NewSessionState()
	tokens := NewTokenProvider(state, finalConfig.Client)
	cache, err := NewClientCache(state, builder.clientFactory, tokens)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	state.AddObserver(cache)

	coordinator, err := NewCoordinator(
		state,
		cache,
		builder.credentialStore,
		builder.loginTransport,
		finalConfig.Auth,
		logger,
		builder.metricsRecorder,
	)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	executor, err := NewExecutor(cache, coordinator, logger, builder.metricsRecorder)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		registry:        builder.registry,
		state:           state,
		tokens:          tokens,
		cache:           cache,
		coordinator:     coordinator,
		executor:        executor,
		credentials:     builder.credentialStore,
		transport:       builder.loginTransport,
		jobEnqueuer:     builder.jobEnqueuer,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

// Connect performs the first login for server: validates and registers the
// identity, runs the login exchange with the supplied password, persists the
// credential (shielded from caller cancellation), and creates the session.
func (s *Service) Connect(ctx context.Context, server Server, password string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("core: service is nil")
	}
	if password == "" {
		return Session{}, s.mapError(NewConfigurationError("core: password is required to connect", nil))
	}
	if err := s.registry.Register(server); err != nil {
		return Session{}, s.mapError(err)
	}

	loginCtx, cancel := context.WithTimeout(ctx, s.config.Auth.LoginTimeout)
	defer cancel()
	result, err := s.transport.Login(loginCtx, server, password)
	if err != nil {
		if IsUnauthorizedStatus(err) {
			return Session{}, s.mapError(ensureMediaErrorEnvelope(
				goerrors.Wrap(err, goerrors.CategoryAuth, "core: login rejected by server").
					WithTextCode(MediaErrorUnauthenticated),
			))
		}
		if IsTransientNetwork(err) {
			return Session{}, s.mapError(NewNetworkError("core: login exchange failed", err))
		}
		return Session{}, s.mapError(err)
	}

	persistCtx, cancelPersist := context.WithTimeout(
		context.WithoutCancel(ctx), s.config.Auth.PersistTimeout,
	)
	defer cancelPersist()
	credential := Credential{ServerKey: server.Key(), Username: server.Username, Password: password}
	if putErr := s.credentials.Put(persistCtx, credential); putErr != nil {
		return Session{}, s.mapError(putErr)
	}

	session := s.state.Commit(server, result.Token, result.TTL)
	s.cache.Invalidate(server)
	return session, nil
}

// Execute runs one authenticated operation through the retry/reauth protocol.
func (s *Service) Execute(ctx context.Context, server Server, op Operation) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	return s.executor.Execute(ctx, server, op)
}

// Reauthenticate forces one refresh cycle for server, sharing any in-flight
// attempt.
func (s *Service) Reauthenticate(ctx context.Context, server Server) (ReauthOutcome, error) {
	if s == nil {
		return ReauthOutcome{}, fmt.Errorf("core: service is nil")
	}
	return s.coordinator.Reauthenticate(ctx, server)
}

// Logout destroys the session for server and, when forgetCredentials is set,
// removes the saved password as well.
func (s *Service) Logout(ctx context.Context, server Server, forgetCredentials bool) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if err := s.coordinator.Logout(ctx, server, forgetCredentials); err != nil {
		return s.mapError(err)
	}
	s.registry.Remove(server.Key())
	return nil
}

// Session returns the current snapshot for server.
func (s *Service) Session(server Server) Session {
	if s == nil {
		return Session{Server: server}
	}
	return s.state.Current(server)
}

// TokenState resolves the freshness flags for server's current session.
func (s *Service) TokenState(server Server) TokenState {
	if s == nil {
		return TokenState{}
	}
	return ResolveTokenState(time.Now().UTC(), s.state.Current(server), s.config.Auth.ExpiringSoonWindow)
}

// EnqueueKeepalive schedules a proactive refresh job for server when a job
// queue is configured and the token is inside its refresh lead window.
func (s *Service) EnqueueKeepalive(ctx context.Context, server Server) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("core: service is nil")
	}
	if s.jobEnqueuer == nil {
		return false, nil
	}
	now := time.Now().UTC()
	state := ResolveTokenState(now, s.state.Current(server), s.config.Auth.ExpiringSoonWindow)
	if !ShouldRefreshToken(now, state, s.config.Auth.RefreshLeadWindow) {
		return false, nil
	}
	msg := &JobExecutionMessage{
		JobID:          JobIDKeepalive,
		ServerKey:      server.Key(),
		IdempotencyKey: fmt.Sprintf("%s::%d", server.Key(), s.state.Current(server).TokenVersion),
		DedupPolicy:    "drop",
	}
	if err := s.jobEnqueuer.Enqueue(ctx, msg); err != nil {
		return false, s.mapError(err)
	}
	return true, nil
}

func (s *Service) Registry() *ServerRegistry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Executor() *Executor {
	if s == nil {
		return nil
	}
	return s.executor
}

func (s *Service) Coordinator() *Coordinator {
	if s == nil {
		return nil
	}
	return s.coordinator
}

func (s *Service) Sessions() *SessionState {
	if s == nil {
		return nil
	}
	return s.state
}

func (s *Service) Clients() *ClientCache {
	if s == nil {
		return nil
	}
	return s.cache
}

func (s *Service) Tokens() *TokenProvider {
	if s == nil {
		return nil
	}
	return s.tokens
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) mapError(err error) error {
	return mapBuildError(s.errorMapper, err)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return mediaErrorMapper(err)
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

// JobIDKeepalive names the proactive token refresh job.
const JobIDKeepalive = "mediaclient.session.keepalive"
