package core

import "time"

const (
	DefaultTokenExpiringSoonWindow = 5 * time.Minute
	DefaultTokenRefreshLeadWindow  = 5 * time.Minute
)

// TokenState captures the lifecycle flags derived from one session snapshot.
// It feeds the proactive keepalive job, which refreshes tokens before callers
// start tripping 401s.
type TokenState struct {
	ExpiresAt      *time.Time
	HasToken       bool
	IsExpired      bool
	IsExpiringSoon bool
}

// ResolveTokenState evaluates expiry flags for a session snapshot.
func ResolveTokenState(now time.Time, session Session, expiringSoonWindow time.Duration) TokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if expiringSoonWindow <= 0 {
		expiringSoonWindow = DefaultTokenExpiringSoonWindow
	}

	state := TokenState{HasToken: session.HasToken()}
	expiresAt := session.ExpiresAt()
	if expiresAt == nil {
		return state
	}
	state.ExpiresAt = expiresAt
	if !expiresAt.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !expiresAt.After(now.Add(expiringSoonWindow))
	return state
}

// ShouldRefreshToken reports whether a proactive refresh should run before
// the next operation: the token is missing, already expired, or inside the
// refresh lead window.
func ShouldRefreshToken(now time.Time, state TokenState, refreshLeadWindow time.Duration) bool {
	if !state.HasToken {
		return true
	}
	if state.IsExpired {
		return true
	}
	if state.ExpiresAt == nil {
		return false
	}
	if refreshLeadWindow <= 0 {
		refreshLeadWindow = DefaultTokenRefreshLeadWindow
	}
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	return !state.ExpiresAt.UTC().After(now.Add(refreshLeadWindow))
}
