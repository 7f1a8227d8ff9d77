package core

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Operation is one logical authenticated call against a media server. The
// handle it receives is valid for this invocation only; holding it across the
// call boundary defeats the token-version staleness check.
type Operation func(ctx context.Context, client *ClientHandle) error

// Executor is the only API surface higher-level repositories depend on. It
// wraps one logical operation with the full retry/reauth protocol: at most
// one retry per operation, at most one in-flight reauthentication per server
// no matter how many operations 401 concurrently.
type Executor struct {
	cache       *ClientCache
	coordinator *Coordinator
	logger      Logger
	metrics     MetricsRecorder
}

func NewExecutor(cache *ClientCache, coordinator *Coordinator, logger Logger, metrics MetricsRecorder) (*Executor, error) {
	if cache == nil {
		return nil, fmt.Errorf("core: client cache is required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("core: coordinator is required")
	}
	if metrics == nil {
		metrics = NopMetricsRecorder{}
	}
	return &Executor{
		cache:       cache,
		coordinator: coordinator,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// Execute runs op with a client bound to the current token version. A 401
// triggers exactly one reauthentication (shared across concurrent callers)
// and exactly one retry with a freshly built client. Every non-auth failure
// is returned to the caller unmodified; retry and backoff for timeouts and
// 5xx belong to the caller, not this core.
func (e *Executor) Execute(ctx context.Context, server Server, op Operation) error {
	if e == nil || e.cache == nil || e.coordinator == nil {
		return NewConfigurationError("core: executor is not configured", nil)
	}
	if op == nil {
		return NewConfigurationError("core: operation is required", nil)
	}
	startedAt := time.Now()

	client, err := e.cache.Get(ctx, server)
	if err != nil {
		e.observeExecute(ctx, server, startedAt, "configuration_error", false)
		return mediaErrorMapper(err)
	}

	opErr := op(ctx, client)
	if opErr == nil {
		e.observeExecute(ctx, server, startedAt, "success", false)
		return nil
	}
	if !IsUnauthorizedStatus(opErr) {
		e.observeExecute(ctx, server, startedAt, "error", false)
		return opErr
	}

	if _, reauthErr := e.coordinator.Reauthenticate(ctx, server); reauthErr != nil {
		e.observeExecute(ctx, server, startedAt, "reauth_failed", true)
		if IsNoCredentials(reauthErr) {
			return reauthErr
		}
		return ensureMediaErrorEnvelope(
			goerrors.Wrap(reauthErr, goerrors.CategoryAuth, "core: reauthentication failed").
				WithTextCode(MediaErrorUnauthenticated),
		)
	}

	// Invalidation already happened inside the coordinator, so this fetch is
	// cheap and bound to the fresh token version.
	client, err = e.cache.Get(ctx, server)
	if err != nil {
		e.observeExecute(ctx, server, startedAt, "configuration_error", true)
		return mediaErrorMapper(err)
	}

	retryErr := op(ctx, client)
	switch {
	case retryErr == nil:
		e.observeExecute(ctx, server, startedAt, "retried_success", true)
		return nil
	case IsUnauthorizedStatus(retryErr):
		e.observeExecute(ctx, server, startedAt, "unauthenticated", true)
		return ensureMediaErrorEnvelope(
			goerrors.Wrap(retryErr, goerrors.CategoryAuth, "core: operation unauthorized after retry").
				WithTextCode(MediaErrorUnauthenticated),
		)
	default:
		e.observeExecute(ctx, server, startedAt, "error", true)
		return retryErr
	}
}

// Do runs a typed operation through exec. It exists so callers get their
// result without re-implementing the retry protocol.
func Do[T any](ctx context.Context, exec *Executor, server Server, fn func(ctx context.Context, client *ClientHandle) (T, error)) (T, error) {
	var out T
	if fn == nil {
		return out, NewConfigurationError("core: operation is required", nil)
	}
	err := exec.Execute(ctx, server, func(ctx context.Context, client *ClientHandle) error {
		value, opErr := fn(ctx, client)
		if opErr != nil {
			return opErr
		}
		out = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (e *Executor) observeExecute(ctx context.Context, server Server, startedAt time.Time, status string, retried bool) {
	tags := map[string]string{
		"server_id": server.ID,
		"status":    status,
	}
	if retried {
		tags["retried"] = "true"
	}
	e.metrics.IncCounter(ctx, "mediaclient.execute.total", 1, tags)
	e.metrics.ObserveHistogram(ctx, "mediaclient.execute.duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)
}
