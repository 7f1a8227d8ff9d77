package command

import (
	"fmt"

	"github.com/goliatone/go-mediaclient/core"
)

const (
	TypeConnect          = "mediaclient.command.connect"
	TypeReauthenticate   = "mediaclient.command.reauthenticate"
	TypeLogout           = "mediaclient.command.logout"
	TypeEnqueueKeepalive = "mediaclient.command.keepalive.enqueue"
)

type ConnectMessage struct {
	Server   core.Server
	Password string
}

func (ConnectMessage) Type() string { return TypeConnect }

func (m ConnectMessage) Validate() error {
	if err := validateServer(m.Server); err != nil {
		return err
	}
	if m.Password == "" {
		return fmt.Errorf("command: password is required")
	}
	return nil
}

type ReauthenticateMessage struct {
	Server core.Server
}

func (ReauthenticateMessage) Type() string { return TypeReauthenticate }

func (m ReauthenticateMessage) Validate() error {
	return validateServer(m.Server)
}

type LogoutMessage struct {
	Server            core.Server
	ForgetCredentials bool
}

func (LogoutMessage) Type() string { return TypeLogout }

func (m LogoutMessage) Validate() error {
	return validateServer(m.Server)
}

type EnqueueKeepaliveMessage struct {
	Server core.Server
}

func (EnqueueKeepaliveMessage) Type() string { return TypeEnqueueKeepalive }

func (m EnqueueKeepaliveMessage) Validate() error {
	return validateServer(m.Server)
}

func validateServer(server core.Server) error {
	if err := server.Validate(); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}
