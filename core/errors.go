package core

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	MediaErrorBadInput        = "MEDIA_BAD_INPUT"
	MediaErrorConfiguration   = "MEDIA_CONFIGURATION_ERROR"
	MediaErrorNetwork         = "MEDIA_NETWORK_ERROR"
	MediaErrorUnauthenticated = "MEDIA_UNAUTHENTICATED"
	MediaErrorNoCredentials   = "MEDIA_NO_CREDENTIALS"
	MediaErrorServerNotFound  = "MEDIA_SERVER_NOT_FOUND"
	MediaErrorInternal        = "MEDIA_INTERNAL_ERROR"
)

// NewUnauthenticatedError reports that the single allowed retry has been
// exhausted (or reauthentication itself failed) and the caller must re-login.
func NewUnauthenticatedError(message string) *goerrors.Error {
	return ensureMediaErrorEnvelope(
		goerrors.New(message, goerrors.CategoryAuth).
			WithTextCode(MediaErrorUnauthenticated),
	)
}

// NewNoCredentialsError reports that no saved password exists to attempt a
// reauthentication with.
func NewNoCredentialsError(message string) *goerrors.Error {
	return ensureMediaErrorEnvelope(
		goerrors.New(message, goerrors.CategoryAuth).
			WithTextCode(MediaErrorNoCredentials),
	)
}

// NewNetworkError wraps a transient transport failure. Callers own retry and
// backoff for these; they never clear stored credentials.
func NewNetworkError(message string, cause error) *goerrors.Error {
	wrapped := goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithTextCode(MediaErrorNetwork).
		WithCode(http.StatusBadGateway)
	return ensureMediaErrorEnvelope(wrapped)
}

// NewConfigurationError reports a malformed server identity or client
// construction failure. Fatal for the operation, never retried.
func NewConfigurationError(message string, cause error) *goerrors.Error {
	var enveloped *goerrors.Error
	if cause != nil {
		enveloped = goerrors.Wrap(cause, goerrors.CategoryBadInput, message)
	} else {
		enveloped = goerrors.New(message, goerrors.CategoryBadInput)
	}
	return ensureMediaErrorEnvelope(enveloped.WithTextCode(MediaErrorConfiguration))
}

// IsUnauthorizedStatus reports whether err carries an HTTP 401/403 from the
// remote server, using structured status codes only. Message contents are
// never inspected; substring classification of auth failures is exactly the
// defect this package exists to remove.
func IsUnauthorizedStatus(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	if richErr.Code == http.StatusUnauthorized || richErr.Code == http.StatusForbidden {
		return true
	}
	return richErr.Category == goerrors.CategoryAuth || richErr.Category == goerrors.CategoryAuthz
}

// IsNoCredentials reports whether err is the missing-saved-password outcome.
func IsNoCredentials(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), MediaErrorNoCredentials)
}

// IsTransientNetwork reports whether err is a transport-level failure that a
// later attempt with the same credentials may survive. Auth-classified errors
// are never transient, regardless of wrapping.
func IsTransientNetwork(err error) bool {
	if err == nil {
		return false
	}
	if IsUnauthorizedStatus(err) {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Category == goerrors.CategoryExternal {
			return true
		}
		if richErr.Code >= http.StatusInternalServerError || richErr.Code == http.StatusRequestTimeout {
			return true
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func mediaErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureMediaErrorEnvelope(richErr)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureMediaErrorEnvelope(mapped)
}

func ensureMediaErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = mediaHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultMediaTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultMediaTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return MediaErrorBadInput
	case goerrors.CategoryNotFound:
		return MediaErrorServerNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return MediaErrorUnauthenticated
	case goerrors.CategoryExternal:
		return MediaErrorNetwork
	default:
		return MediaErrorInternal
	}
}

func mediaHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
