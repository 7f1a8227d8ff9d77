package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Server identifies one remote media server. Identity is immutable once
// registered: a different base URL or username is a different server, never
// an update of an existing one.
type Server struct {
	ID       string
	BaseURL  string
	Username string
}

// Key returns the canonical cache/store key for the server identity.
func (s Server) Key() string {
	id := strings.TrimSpace(s.ID)
	if id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(s.BaseURL)) + "::" + strings.TrimSpace(s.Username)
}

func (s Server) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("core: server id is required")
	}
	baseURL := strings.TrimSpace(s.BaseURL)
	if baseURL == "" {
		return fmt.Errorf("core: server base url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("core: server base url is malformed: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("core: server base url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("core: server base url host is required")
	}
	if strings.TrimSpace(s.Username) == "" {
		return fmt.Errorf("core: server username is required")
	}
	return nil
}

// Session is the current authentication state for one server. Values returned
// by SessionState are immutable snapshots.
type Session struct {
	Server         Server
	Token          string
	TokenVersion   int64
	TokenIssuedAt  time.Time
	TokenTTL       time.Duration
	Authenticating bool
}

func (s Session) HasToken() bool {
	return strings.TrimSpace(s.Token) != ""
}

// ExpiresAt returns the token deadline, or nil when the server issued a token
// without a TTL.
func (s Session) ExpiresAt() *time.Time {
	if !s.HasToken() || s.TokenTTL <= 0 || s.TokenIssuedAt.IsZero() {
		return nil
	}
	expiresAt := s.TokenIssuedAt.Add(s.TokenTTL).UTC()
	return &expiresAt
}

// Credential is the persisted login secret for one server identity. The
// password is plaintext only in memory; stores encrypt it before persisting.
type Credential struct {
	ServerKey string
	Username  string
	Password  string
}

func (c Credential) Validate() error {
	if strings.TrimSpace(c.ServerKey) == "" {
		return fmt.Errorf("core: credential server key is required")
	}
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("core: credential username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("core: credential password is required")
	}
	return nil
}

// LoginResult is the outcome of a successful login exchange.
type LoginResult struct {
	Token string
	TTL   time.Duration
}

// ReauthOutcome reports how a reauthentication resolved for one caller:
// Performed is true only for the caller that executed the login exchange,
// false for callers that waited on another caller's in-flight attempt.
type ReauthOutcome struct {
	TokenVersion int64
	Performed    bool
}
