package core

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientHandle is one constructed API client bound to a single token version.
// Handles are disposable: fetch one per operation from the ClientCache, never
// store one in a long-lived field across a possible refresh boundary. The
// token itself is attached at send time by the TokenProvider, so a handle
// never carries a token value.
type ClientHandle struct {
	server       Server
	tokenVersion int64
	baseURL      *url.URL
	httpClient   *http.Client
	tokens       *TokenProvider
}

func (h *ClientHandle) Server() Server {
	if h == nil {
		return Server{}
	}
	return h.server
}

// TokenVersion is the session token version the handle was built against.
// The ClientCache compares it with the live version to detect staleness.
func (h *ClientHandle) TokenVersion() int64 {
	if h == nil {
		return 0
	}
	return h.tokenVersion
}

// NewRequest builds a request against the server's base URL. The auth header
// is deliberately not attached here; Do adds it at send time.
func (h *ClientHandle) NewRequest(ctx context.Context, method string, path string, body io.Reader) (*http.Request, error) {
	if h == nil || h.baseURL == nil {
		return nil, NewConfigurationError("core: client handle is not configured", nil)
	}
	ref, err := url.Parse(strings.TrimSpace(path))
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("core: malformed request path %q", path), err)
	}
	return http.NewRequestWithContext(ctx, method, h.baseURL.ResolveReference(ref).String(), body)
}

// Do attaches the current session token and sends the request. When no token
// exists the request is not sent and the caller receives an unauthenticated
// classification, which drives the executor's reauthentication path.
func (h *ClientHandle) Do(req *http.Request) (*http.Response, error) {
	if h == nil || h.httpClient == nil {
		return nil, NewConfigurationError("core: client handle is not configured", nil)
	}
	if h.tokens == nil || !h.tokens.Attach(h.server, req) {
		return nil, NewUnauthenticatedError(
			fmt.Sprintf("core: no session token for server %q", h.server.Key()),
		)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("core: request to server %q failed", h.server.Key()), err)
	}
	return resp, nil
}

// HTTPClientFactory is the default ClientFactory. Building a client performs
// the one-time expensive initialization (TLS state, connection pool); the
// ClientCache keeps the handle alive until the token version moves on.
type HTTPClientFactory struct {
	Timeout   time.Duration
	Transport http.RoundTripper
	TLSConfig *tls.Config
}

func (f HTTPClientFactory) Build(_ context.Context, server Server, tokenVersion int64, tokens *TokenProvider) (*ClientHandle, error) {
	if err := server.Validate(); err != nil {
		return nil, NewConfigurationError("core: cannot build client for invalid server", err)
	}
	if tokens == nil {
		return nil, NewConfigurationError("core: token provider is required to build a client", nil)
	}
	baseURL, err := url.Parse(strings.TrimSpace(server.BaseURL))
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("core: malformed base url %q", server.BaseURL), err)
	}

	transport := f.Transport
	if transport == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		if f.TLSConfig != nil {
			base.TLSClientConfig = f.TLSConfig.Clone()
		}
		transport = base
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Client.RequestTimeout
	}

	return &ClientHandle{
		server:       server,
		tokenVersion: tokenVersion,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: timeout, Transport: transport},
		tokens:       tokens,
	}, nil
}
