package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// CredentialStore persists login secrets per server identity. Implementations
// must guarantee that Put completes even when the calling context is
// cancelled mid-write; a credential save triggered by a successful login must
// never be lost to the caller navigating away.
type CredentialStore interface {
	Get(ctx context.Context, serverKey string, username string) (Credential, bool, error)
	Put(ctx context.Context, credential Credential) error
	Clear(ctx context.Context, serverKey string, username string) error
}

// LoginTransport performs the login exchange against a media server. It is
// the only network dependency of the Coordinator and is swappable for tests.
type LoginTransport interface {
	Login(ctx context.Context, server Server, password string) (LoginResult, error)
}

// SecretProvider encrypts credential payloads before they reach a persistent
// store. The core never inspects ciphertext contents.
type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// ClientFactory constructs an API client handle bound to one token version.
// Construction may be expensive (TLS trust state, connection pools); the
// ClientCache serializes builds per server so concurrent callers share one.
type ClientFactory interface {
	Build(ctx context.Context, server Server, tokenVersion int64, tokens *TokenProvider) (*ClientHandle, error)
}

// SessionObserver receives session transitions published by SessionState.
type SessionObserver interface {
	SessionChanged(session Session)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// JobExecutionMessage is the queue-agnostic payload for background work such
// as proactive token keepalive refreshes.
type JobExecutionMessage struct {
	JobID          string
	ServerKey      string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}
