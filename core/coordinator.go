package core

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Coordinator owns the single-flight reauthentication protocol and is the
// only component allowed to write to SessionState. Any number of callers may
// request a reauthentication for the same server concurrently; exactly one
// performs the login exchange, and every other caller waits for that
// exchange's outcome instead of starting a second login.
type Coordinator struct {
	state       *SessionState
	cache       *ClientCache
	credentials CredentialStore
	transport   LoginTransport

	logger  Logger
	metrics MetricsRecorder

	loginTimeout   time.Duration
	persistTimeout time.Duration
}

type reauthResult struct {
	outcome ReauthOutcome
	err     error
}

func NewCoordinator(
	state *SessionState,
	cache *ClientCache,
	credentials CredentialStore,
	transport LoginTransport,
	cfg AuthConfig,
	logger Logger,
	metrics MetricsRecorder,
) (*Coordinator, error) {
	if state == nil {
		return nil, fmt.Errorf("core: session state is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("core: client cache is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("core: credential store is required")
	}
	if transport == nil {
		return nil, fmt.Errorf("core: login transport is required")
	}
	loginTimeout := cfg.LoginTimeout
	if loginTimeout <= 0 {
		loginTimeout = DefaultConfig().Auth.LoginTimeout
	}
	persistTimeout := cfg.PersistTimeout
	if persistTimeout <= 0 {
		persistTimeout = DefaultConfig().Auth.PersistTimeout
	}
	if metrics == nil {
		metrics = NopMetricsRecorder{}
	}
	return &Coordinator{
		state:          state,
		cache:          cache,
		credentials:    credentials,
		transport:      transport,
		logger:         logger,
		metrics:        metrics,
		loginTimeout:   loginTimeout,
		persistTimeout: persistTimeout,
	}, nil
}

// Reauthenticate drives one refresh cycle for server. The caller that wins
// the authenticating flag performs the login; losers wait on the session
// change channel and derive their result from the observed token version.
//
// The winner's exchange runs detached from the caller's cancellation: if the
// triggering caller goes away mid-flight, the login, the credential persist,
// and the session commit still complete so the remaining waiters observe a
// terminal outcome. Cancellation only stops this caller from waiting.
func (c *Coordinator) Reauthenticate(ctx context.Context, server Server) (ReauthOutcome, error) {
	if c == nil {
		return ReauthOutcome{}, fmt.Errorf("core: coordinator is nil")
	}
	if err := server.Validate(); err != nil {
		return ReauthOutcome{}, NewConfigurationError("core: cannot reauthenticate invalid server", err)
	}

	before := c.state.Current(server)
	if !c.state.BeginAuthenticating(server) {
		return c.awaitOutcome(ctx, server, before.TokenVersion)
	}

	done := make(chan reauthResult, 1)
	go func() {
		done <- c.performExchange(context.WithoutCancel(ctx), server)
	}()

	select {
	case result := <-done:
		return result.outcome, result.err
	case <-ctx.Done():
		// Exchange keeps running; waiters still observe the outcome.
		return ReauthOutcome{}, mediaErrorMapper(ctx.Err())
	}
}

// Logout destroys the session and its cached clients. Stored credentials are
// cleared only when the user chose to forget them; a logout after a network
// failure keeps the saved password so a later login can reuse it.
func (c *Coordinator) Logout(ctx context.Context, server Server, forgetCredentials bool) error {
	if c == nil {
		return fmt.Errorf("core: coordinator is nil")
	}
	c.state.Forget(server)
	c.cache.Forget(server)
	if !forgetCredentials {
		return nil
	}
	clearCtx, cancel := c.persistContext(ctx)
	defer cancel()
	if err := c.credentials.Clear(clearCtx, server.Key(), server.Username); err != nil {
		return mediaErrorMapper(err)
	}
	return nil
}

func (c *Coordinator) performExchange(ctx context.Context, server Server) reauthResult {
	startedAt := time.Now()
	outcome, err := c.exchange(ctx, server)
	c.observeReauth(ctx, server, startedAt, outcome, err)
	return reauthResult{outcome: outcome, err: err}
}

func (c *Coordinator) exchange(ctx context.Context, server Server) (ReauthOutcome, error) {
	loginCtx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	credential, found, err := c.credentials.Get(loginCtx, server.Key(), server.Username)
	if err != nil {
		c.state.Fail(server)
		return ReauthOutcome{}, mediaErrorMapper(err)
	}
	if !found {
		c.state.Fail(server)
		return ReauthOutcome{}, NewNoCredentialsError(
			fmt.Sprintf("core: no saved credentials for server %q", server.Key()),
		)
	}

	result, err := c.transport.Login(loginCtx, server, credential.Password)
	if err != nil {
		return ReauthOutcome{}, c.settleLoginFailure(ctx, server, err)
	}

	// The save must complete even though the triggering caller may already be
	// gone; losing a credential write to scope cancellation was a recurring
	// field defect.
	persistCtx, cancelPersist := c.persistContext(ctx)
	defer cancelPersist()
	if putErr := c.credentials.Put(persistCtx, credential); putErr != nil {
		c.logError(ctx, "credential persist after login failed", map[string]any{
			"server_key": server.Key(),
			"error":      putErr.Error(),
		})
	}

	session := c.state.Commit(server, result.Token, result.TTL)
	c.cache.Invalidate(server)
	return ReauthOutcome{TokenVersion: session.TokenVersion, Performed: true}, nil
}

// settleLoginFailure applies the credential-retention policy: stored
// credentials are discarded only on proof that they are wrong (401/403 from
// the login call itself), never on proof that the network was briefly
// unavailable.
func (c *Coordinator) settleLoginFailure(ctx context.Context, server Server, loginErr error) error {
	if IsUnauthorizedStatus(loginErr) {
		clearCtx, cancel := c.persistContext(ctx)
		defer cancel()
		if clearErr := c.credentials.Clear(clearCtx, server.Key(), server.Username); clearErr != nil {
			c.logError(ctx, "credential clear after rejected login failed", map[string]any{
				"server_key": server.Key(),
				"error":      clearErr.Error(),
			})
		}
		c.state.Fail(server)
		return ensureMediaErrorEnvelope(
			goerrors.Wrap(loginErr, goerrors.CategoryAuth, "core: login rejected by server").
				WithTextCode(MediaErrorUnauthenticated),
		)
	}

	c.state.Fail(server)
	if IsTransientNetwork(loginErr) {
		return NewNetworkError("core: login exchange failed", loginErr)
	}
	return mediaErrorMapper(loginErr)
}

// awaitOutcome is the loser path of the single flight: block until the
// authenticating flag clears, then judge success by whether the token version
// moved past the version observed when this caller 401ed.
func (c *Coordinator) awaitOutcome(ctx context.Context, server Server, sinceVersion int64) (ReauthOutcome, error) {
	for {
		changed := c.state.Changed(server)
		current := c.state.Current(server)
		if !current.Authenticating {
			if current.TokenVersion > sinceVersion && current.HasToken() {
				return ReauthOutcome{TokenVersion: current.TokenVersion}, nil
			}
			// The flight failed; the winner already logged and settled
			// credentials, so waiters surface a single quiet outcome.
			return ReauthOutcome{}, NewUnauthenticatedError(
				fmt.Sprintf("core: reauthentication for server %q did not produce a new token", server.Key()),
			)
		}
		select {
		case <-ctx.Done():
			return ReauthOutcome{}, mediaErrorMapper(ctx.Err())
		case <-changed:
		}
	}
}

// persistContext shields the critical write path from the caller's
// cancellation while still bounding it, so detached work cannot leak.
func (c *Coordinator) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.persistTimeout)
}

func (c *Coordinator) observeReauth(ctx context.Context, server Server, startedAt time.Time, outcome ReauthOutcome, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	tags := map[string]string{
		"server_id": server.ID,
		"status":    status,
	}
	c.metrics.IncCounter(ctx, "mediaclient.reauth.total", 1, tags)
	c.metrics.ObserveHistogram(ctx, "mediaclient.reauth.duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	fields := map[string]any{
		"server_key":    server.Key(),
		"status":        status,
		"duration_ms":   time.Since(startedAt).Milliseconds(),
		"token_version": outcome.TokenVersion,
	}
	if err != nil {
		fields["error"] = err.Error()
		c.logError(ctx, "reauthentication failed", fields)
		return
	}
	c.logInfo(ctx, "reauthentication succeeded", fields)
}

func (c *Coordinator) logInfo(ctx context.Context, message string, fields map[string]any) {
	c.logWithLevel(ctx, "info", message, fields)
}

func (c *Coordinator) logError(ctx context.Context, message string, fields map[string]any) {
	c.logWithLevel(ctx, "error", message, fields)
}

func (c *Coordinator) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logger := c.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch level {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}
