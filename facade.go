package mediaclient

import (
	"fmt"

	mediacommand "github.com/goliatone/go-mediaclient/command"
	"github.com/goliatone/go-mediaclient/core"
	mediaquery "github.com/goliatone/go-mediaclient/query"
)

// CommandQueryService is the surface the facade needs from the session
// service. *core.Service satisfies it.
type CommandQueryService interface {
	mediacommand.MutatingService
	mediaquery.SessionReader
	Registry() *core.ServerRegistry
}

type Commands struct {
	Connect          *mediacommand.ConnectCommand
	Reauthenticate   *mediacommand.ReauthenticateCommand
	Logout           *mediacommand.LogoutCommand
	EnqueueKeepalive *mediacommand.EnqueueKeepaliveCommand
}

type Queries struct {
	GetSession    *mediaquery.GetSessionQuery
	GetTokenState *mediaquery.GetTokenStateQuery
	ListServers   *mediaquery.ListServersQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	directory mediaquery.ServerDirectory
}

// WithServerDirectory overrides the directory the queries resolve server
// keys against. Defaults to the service registry.
func WithServerDirectory(directory mediaquery.ServerDirectory) FacadeOption {
	return func(options *facadeOptions) {
		options.directory = directory
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("mediaclient: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	directory := cfg.directory
	if directory == nil {
		directory = service.Registry()
	}
	if directory == nil {
		return nil, fmt.Errorf("mediaclient: server directory is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Connect:          mediacommand.NewConnectCommand(service),
		Reauthenticate:   mediacommand.NewReauthenticateCommand(service),
		Logout:           mediacommand.NewLogoutCommand(service),
		EnqueueKeepalive: mediacommand.NewEnqueueKeepaliveCommand(service),
	}
	facade.queries = Queries{
		GetSession:    mediaquery.NewGetSessionQuery(service, directory),
		GetTokenState: mediaquery.NewGetTokenStateQuery(service, directory),
		ListServers:   mediaquery.NewListServersQuery(directory),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
