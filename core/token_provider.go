package core

import (
	"net/http"
	"strings"
)

// TokenProvider supplies the freshest token at the moment a request is about
// to be sent. It is a pure read path over SessionState and never caches a
// token value itself; the bug class it exists to prevent is a client built
// once with a token baked in and reused across a refresh boundary.
type TokenProvider struct {
	state  *SessionState
	config ClientConfig
}

func NewTokenProvider(state *SessionState, config ClientConfig) *TokenProvider {
	return &TokenProvider{state: state, config: config}
}

// CurrentToken returns the live token for server, if any.
func (p *TokenProvider) CurrentToken(server Server) (string, bool) {
	if p == nil || p.state == nil {
		return "", false
	}
	session := p.state.Current(server)
	if !session.HasToken() {
		return "", false
	}
	return session.Token, true
}

// Attach adds the current token to req as an auth header, plus the query
// parameter fallback when configured for endpoints that require it. It
// reports whether a token was attached; on false the request is left
// unmodified and the caller is expected to fail with an unauthenticated
// classification rather than silently proceed.
func (p *TokenProvider) Attach(server Server, req *http.Request) bool {
	if p == nil || req == nil {
		return false
	}
	token, ok := p.CurrentToken(server)
	if !ok {
		return false
	}

	header := strings.TrimSpace(p.config.TokenHeader)
	if header == "" {
		header = DefaultConfig().Client.TokenHeader
	}
	req.Header.Set(header, token)

	if p.config.QueryFallback {
		param := strings.TrimSpace(p.config.TokenQueryParam)
		if param != "" {
			query := req.URL.Query()
			query.Set(param, token)
			req.URL.RawQuery = query.Encode()
		}
	}
	return true
}
