package query

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mediaclient/core"
)

type stubSessionReader struct {
	sessionFn    func(server core.Server) core.Session
	tokenStateFn func(server core.Server) core.TokenState
}

func (s stubSessionReader) Session(server core.Server) core.Session {
	if s.sessionFn == nil {
		return core.Session{}
	}
	return s.sessionFn(server)
}

func (s stubSessionReader) TokenState(server core.Server) core.TokenState {
	if s.tokenStateFn == nil {
		return core.TokenState{}
	}
	return s.tokenStateFn(server)
}

func queryTestServer() core.Server {
	return core.Server{ID: "srv_1", BaseURL: "https://media.example.test", Username: "viewer"}
}

func newTestDirectory(t *testing.T, servers ...core.Server) *core.ServerRegistry {
	t.Helper()
	registry := core.NewServerRegistry()
	for _, server := range servers {
		if err := registry.Register(server); err != nil {
			t.Fatalf("register server %q: %v", server.ID, err)
		}
	}
	return registry
}

func TestGetSessionQuery_ResolvesRegisteredServer(t *testing.T) {
	server := queryTestServer()
	reader := stubSessionReader{
		sessionFn: func(got core.Server) core.Session {
			if got.Key() != server.Key() {
				t.Fatalf("unexpected server: %q", got.Key())
			}
			return core.Session{Server: got, Token: "token-1", TokenVersion: 3}
		},
	}

	q := NewGetSessionQuery(reader, newTestDirectory(t, server))
	session, err := q.Query(context.Background(), GetSessionMessage{ServerKey: server.Key()})
	if err != nil {
		t.Fatalf("query session: %v", err)
	}
	if session.Token != "token-1" || session.TokenVersion != 3 {
		t.Fatalf("unexpected session: %#v", session)
	}
}

func TestGetSessionQuery_UnknownServerKey(t *testing.T) {
	q := NewGetSessionQuery(stubSessionReader{}, newTestDirectory(t))

	_, err := q.Query(context.Background(), GetSessionMessage{ServerKey: "missing"})
	if err == nil {
		t.Fatalf("expected not found error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected structured error, got %T", err)
	}
	if richErr.TextCode != core.MediaErrorServerNotFound {
		t.Fatalf("unexpected text code: %q", richErr.TextCode)
	}
}

func TestGetTokenStateQuery_ReturnsReaderState(t *testing.T) {
	server := queryTestServer()
	expires := time.Now().UTC().Add(2 * time.Minute)
	reader := stubSessionReader{
		tokenStateFn: func(core.Server) core.TokenState {
			return core.TokenState{HasToken: true, IsExpiringSoon: true, ExpiresAt: &expires}
		},
	}

	q := NewGetTokenStateQuery(reader, newTestDirectory(t, server))
	state, err := q.Query(context.Background(), GetTokenStateMessage{ServerKey: server.Key()})
	if err != nil {
		t.Fatalf("query token state: %v", err)
	}
	if !state.HasToken || !state.IsExpiringSoon || state.IsExpired {
		t.Fatalf("unexpected token state: %#v", state)
	}
}

func TestListServersQuery_ReturnsSortedServers(t *testing.T) {
	first := core.Server{ID: "srv_a", BaseURL: "https://a.example.test", Username: "viewer"}
	second := core.Server{ID: "srv_b", BaseURL: "https://b.example.test", Username: "viewer"}

	q := NewListServersQuery(newTestDirectory(t, second, first))
	servers, err := q.Query(context.Background(), ListServersMessage{})
	if err != nil {
		t.Fatalf("list servers: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if servers[0].ID != "srv_a" || servers[1].ID != "srv_b" {
		t.Fatalf("unexpected order: %q %q", servers[0].ID, servers[1].ID)
	}
}

func TestQueries_MissingDependencies(t *testing.T) {
	if _, err := (&GetSessionQuery{}).Query(context.Background(), GetSessionMessage{ServerKey: "k"}); err == nil {
		t.Fatalf("expected dependency error from session query")
	}
	if _, err := (&GetTokenStateQuery{}).Query(context.Background(), GetTokenStateMessage{ServerKey: "k"}); err == nil {
		t.Fatalf("expected dependency error from token state query")
	}
	if _, err := (&ListServersQuery{}).Query(context.Background(), ListServersMessage{}); err == nil {
		t.Fatalf("expected dependency error from list query")
	}
}

func TestMessagesValidate(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "get_session_valid", msg: GetSessionMessage{ServerKey: "srv_1"}},
		{name: "get_session_missing_key", msg: GetSessionMessage{}, wantErr: true},
		{name: "get_token_state_valid", msg: GetTokenStateMessage{ServerKey: "srv_1"}},
		{name: "get_token_state_missing_key", msg: GetTokenStateMessage{}, wantErr: true},
		{name: "list_servers", msg: ListServersMessage{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
