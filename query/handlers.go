package query

import (
	"context"

	"github.com/goliatone/go-mediaclient/core"
)

type SessionReader interface {
	Session(server core.Server) core.Session
	TokenState(server core.Server) core.TokenState
}

type ServerDirectory interface {
	Get(serverKey string) (core.Server, bool)
	List() []core.Server
}

type GetSessionQuery struct {
	reader    SessionReader
	directory ServerDirectory
}

func NewGetSessionQuery(reader SessionReader, directory ServerDirectory) *GetSessionQuery {
	return &GetSessionQuery{reader: reader, directory: directory}
}

func (q *GetSessionQuery) Query(ctx context.Context, msg GetSessionMessage) (core.Session, error) {
	if q == nil || q.reader == nil || q.directory == nil {
		return core.Session{}, queryDependencyError("query: session reader is required")
	}
	server, ok := q.directory.Get(msg.ServerKey)
	if !ok {
		return core.Session{}, queryServerNotFoundError(msg.ServerKey)
	}
	return q.reader.Session(server), nil
}

type GetTokenStateQuery struct {
	reader    SessionReader
	directory ServerDirectory
}

func NewGetTokenStateQuery(reader SessionReader, directory ServerDirectory) *GetTokenStateQuery {
	return &GetTokenStateQuery{reader: reader, directory: directory}
}

func (q *GetTokenStateQuery) Query(ctx context.Context, msg GetTokenStateMessage) (core.TokenState, error) {
	if q == nil || q.reader == nil || q.directory == nil {
		return core.TokenState{}, queryDependencyError("query: token state reader is required")
	}
	server, ok := q.directory.Get(msg.ServerKey)
	if !ok {
		return core.TokenState{}, queryServerNotFoundError(msg.ServerKey)
	}
	return q.reader.TokenState(server), nil
}

type ListServersQuery struct {
	directory ServerDirectory
}

func NewListServersQuery(directory ServerDirectory) *ListServersQuery {
	return &ListServersQuery{directory: directory}
}

func (q *ListServersQuery) Query(ctx context.Context, msg ListServersMessage) ([]core.Server, error) {
	if q == nil || q.directory == nil {
		return nil, queryDependencyError("query: server directory is required")
	}
	return q.directory.List(), nil
}
