package query

import "fmt"

const (
	TypeGetSession    = "mediaclient.query.session.get"
	TypeGetTokenState = "mediaclient.query.token_state.get"
	TypeListServers   = "mediaclient.query.servers.list"
)

type GetSessionMessage struct {
	ServerKey string
}

func (GetSessionMessage) Type() string { return TypeGetSession }

func (m GetSessionMessage) Validate() error {
	if m.ServerKey == "" {
		return fmt.Errorf("query: server key is required")
	}
	return nil
}

type GetTokenStateMessage struct {
	ServerKey string
}

func (GetTokenStateMessage) Type() string { return TypeGetTokenState }

func (m GetTokenStateMessage) Validate() error {
	if m.ServerKey == "" {
		return fmt.Errorf("query: server key is required")
	}
	return nil
}

type ListServersMessage struct{}

func (ListServersMessage) Type() string { return TypeListServers }

func (ListServersMessage) Validate() error { return nil }
