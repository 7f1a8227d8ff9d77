package mediaclient

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	mediacommand "github.com/goliatone/go-mediaclient/command"
	"github.com/goliatone/go-mediaclient/core"
	mediaquery "github.com/goliatone/go-mediaclient/query"
)

type stubCommandQueryService struct {
	registry *core.ServerRegistry

	connectCalls int
	lastPassword string
	session      core.Session
}

func newStubCommandQueryService(t *testing.T, servers ...core.Server) *stubCommandQueryService {
	t.Helper()
	registry := core.NewServerRegistry()
	for _, server := range servers {
		if err := registry.Register(server); err != nil {
			t.Fatalf("register server %q: %v", server.ID, err)
		}
	}
	return &stubCommandQueryService{registry: registry}
}

func (s *stubCommandQueryService) Connect(_ context.Context, server core.Server, password string) (core.Session, error) {
	s.connectCalls++
	s.lastPassword = password
	s.session = core.Session{Server: server, Token: "token-1", TokenVersion: 1}
	return s.session, nil
}

func (s *stubCommandQueryService) Reauthenticate(context.Context, core.Server) (core.ReauthOutcome, error) {
	return core.ReauthOutcome{TokenVersion: 2, Performed: true}, nil
}

func (s *stubCommandQueryService) Logout(context.Context, core.Server, bool) error {
	return nil
}

func (s *stubCommandQueryService) EnqueueKeepalive(context.Context, core.Server) (bool, error) {
	return true, nil
}

func (s *stubCommandQueryService) Session(core.Server) core.Session {
	return s.session
}

func (s *stubCommandQueryService) TokenState(core.Server) core.TokenState {
	return core.TokenState{HasToken: s.session.Token != ""}
}

func (s *stubCommandQueryService) Registry() *core.ServerRegistry {
	return s.registry
}

func facadeTestServer() core.Server {
	return core.Server{ID: "srv_1", BaseURL: "https://media.example.test", Username: "viewer"}
}

func TestNewFacadeRequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestFacadeWiresCommandsAndQueries(t *testing.T) {
	server := facadeTestServer()
	svc := newStubCommandQueryService(t, server)

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Connect == nil || commands.Reauthenticate == nil ||
		commands.Logout == nil || commands.EnqueueKeepalive == nil {
		t.Fatalf("expected all commands wired, got %#v", commands)
	}
	queries := facade.Queries()
	if queries.GetSession == nil || queries.GetTokenState == nil || queries.ListServers == nil {
		t.Fatalf("expected all queries wired, got %#v", queries)
	}
	if facade.Service() == nil {
		t.Fatalf("expected service accessor")
	}
}

func TestFacadeConnectThenQuerySession(t *testing.T) {
	server := facadeTestServer()
	svc := newStubCommandQueryService(t, server)

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	collector := gocmd.NewResult[core.Session]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	msg := mediacommand.ConnectMessage{Server: server, Password: "hunter2"}
	if err := facade.Commands().Connect.Execute(ctx, msg); err != nil {
		t.Fatalf("execute connect: %v", err)
	}
	if svc.connectCalls != 1 || svc.lastPassword != "hunter2" {
		t.Fatalf("expected connect delegation, calls=%d password=%q", svc.connectCalls, svc.lastPassword)
	}
	session, ok := collector.Load()
	if !ok || session.Token != "token-1" {
		t.Fatalf("expected connect result stored, ok=%t session=%#v", ok, session)
	}

	got, err := facade.Queries().GetSession.Query(context.Background(), mediaquery.GetSessionMessage{ServerKey: server.Key()})
	if err != nil {
		t.Fatalf("query session: %v", err)
	}
	if got.Token != "token-1" {
		t.Fatalf("unexpected session: %#v", got)
	}
}

func TestFacadeListServersUsesDirectoryOverride(t *testing.T) {
	server := facadeTestServer()
	svc := newStubCommandQueryService(t)

	override := core.NewServerRegistry()
	if err := override.Register(server); err != nil {
		t.Fatalf("register override server: %v", err)
	}

	facade, err := NewFacade(svc, WithServerDirectory(override))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	servers, err := facade.Queries().ListServers.Query(context.Background(), mediaquery.ListServersMessage{})
	if err != nil {
		t.Fatalf("list servers: %v", err)
	}
	if len(servers) != 1 || servers[0].ID != "srv_1" {
		t.Fatalf("expected override directory to serve listing, got %#v", servers)
	}
}
