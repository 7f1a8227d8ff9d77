package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ConnectMessage]          = (*ConnectCommand)(nil)
	_ gocmd.Commander[ReauthenticateMessage]   = (*ReauthenticateCommand)(nil)
	_ gocmd.Commander[LogoutMessage]           = (*LogoutCommand)(nil)
	_ gocmd.Commander[EnqueueKeepaliveMessage] = (*EnqueueKeepaliveCommand)(nil)
)
