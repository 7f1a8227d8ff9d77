package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-mediaclient/core"
)

var (
	_ gocmd.Querier[GetSessionMessage, core.Session]       = (*GetSessionQuery)(nil)
	_ gocmd.Querier[GetTokenStateMessage, core.TokenState] = (*GetTokenStateQuery)(nil)
	_ gocmd.Querier[ListServersMessage, []core.Server]     = (*ListServersQuery)(nil)
)
