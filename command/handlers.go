package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-mediaclient/core"
)

type MutatingService interface {
	Connect(ctx context.Context, server core.Server, password string) (core.Session, error)
	Reauthenticate(ctx context.Context, server core.Server) (core.ReauthOutcome, error)
	Logout(ctx context.Context, server core.Server, forgetCredentials bool) error
	EnqueueKeepalive(ctx context.Context, server core.Server) (bool, error)
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	session, err := c.service.Connect(ctx, msg.Server, msg.Password)
	if err != nil {
		return err
	}
	storeResult(ctx, session)
	return nil
}

type ReauthenticateCommand struct {
	service MutatingService
}

func NewReauthenticateCommand(service MutatingService) *ReauthenticateCommand {
	return &ReauthenticateCommand{service: service}
}

func (c *ReauthenticateCommand) Execute(ctx context.Context, msg ReauthenticateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reauthentication service is required")
	}
	outcome, err := c.service.Reauthenticate(ctx, msg.Server)
	if err != nil {
		return err
	}
	storeResult(ctx, outcome)
	return nil
}

type LogoutCommand struct {
	service MutatingService
}

func NewLogoutCommand(service MutatingService) *LogoutCommand {
	return &LogoutCommand{service: service}
}

func (c *LogoutCommand) Execute(ctx context.Context, msg LogoutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: logout service is required")
	}
	return c.service.Logout(ctx, msg.Server, msg.ForgetCredentials)
}

type EnqueueKeepaliveCommand struct {
	service MutatingService
}

func NewEnqueueKeepaliveCommand(service MutatingService) *EnqueueKeepaliveCommand {
	return &EnqueueKeepaliveCommand{service: service}
}

func (c *EnqueueKeepaliveCommand) Execute(ctx context.Context, msg EnqueueKeepaliveMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: keepalive service is required")
	}
	enqueued, err := c.service.EnqueueKeepalive(ctx, msg.Server)
	if err != nil {
		return err
	}
	storeResult(ctx, enqueued)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
