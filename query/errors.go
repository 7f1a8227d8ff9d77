package query

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mediaclient/core"
)

func queryDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.MediaErrorInternal)
}

func queryServerNotFoundError(serverKey string) error {
	return goerrors.New("query: server is not registered", goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.MediaErrorServerNotFound).
		WithMetadata(map[string]any{"server_key": serverKey})
}
