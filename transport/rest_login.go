package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mediaclient/core"
)

const defaultLoginPath = "/auth/login"

const defaultHTTPClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 1 << 20 // 1 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTLoginTransport performs the password exchange against a media server's
// JSON login endpoint. Rejections are classified by HTTP status code, never by
// response text: 401/403 mean the password is wrong, everything else is the
// server or the network misbehaving.
type RESTLoginTransport struct {
	Client               HTTPDoer
	LoginPath            string
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token            string `json:"token"`
	AccessToken      string `json:"access_token"`
	ExpiresInSeconds int64  `json:"expires_in"`
}

func NewRESTLoginTransport(client HTTPDoer) *RESTLoginTransport {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPClientTimeout}
	}
	return &RESTLoginTransport{
		Client:               client,
		LoginPath:            defaultLoginPath,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (t *RESTLoginTransport) Login(ctx context.Context, server core.Server, password string) (core.LoginResult, error) {
	if t == nil || t.Client == nil {
		return core.LoginResult{}, transportError(
			"transport: login transport requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := server.Validate(); err != nil {
		return core.LoginResult{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid server identity",
			http.StatusBadRequest,
			map[string]any{"server": server.Key()},
		)
	}

	endpoint, err := t.loginURL(server)
	if err != nil {
		return core.LoginResult{}, err
	}

	payload, err := json.Marshal(loginRequest{Username: server.Username, Password: password})
	if err != nil {
		return core.LoginResult{}, transportWrapError(
			err,
			goerrors.CategoryInternal,
			"transport: encode login request",
			http.StatusInternalServerError,
			nil,
		)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return core.LoginResult{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create login request",
			http.StatusBadRequest,
			map[string]any{"url": endpoint},
		)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range t.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	httpRes, err := t.Client.Do(httpReq)
	if err != nil {
		return core.LoginResult{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute login request",
			http.StatusBadGateway,
			map[string]any{"server": server.Key(), "url": endpoint},
		)
	}
	defer httpRes.Body.Close()

	limit := t.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.LoginResult{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read login response",
			http.StatusBadGateway,
			map[string]any{"server": server.Key(), "status_code": httpRes.StatusCode},
		)
	}
	if int64(len(body)) > limit {
		return core.LoginResult{}, transportError(
			fmt.Sprintf("transport: login response exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"server": server.Key(), "status_code": httpRes.StatusCode},
		)
	}

	if err := classifyLoginStatus(httpRes.StatusCode, server); err != nil {
		return core.LoginResult{}, err
	}

	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return core.LoginResult{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode login response",
			http.StatusBadGateway,
			map[string]any{"server": server.Key()},
		)
	}
	token := strings.TrimSpace(parsed.Token)
	if token == "" {
		token = strings.TrimSpace(parsed.AccessToken)
	}
	if token == "" {
		return core.LoginResult{}, transportError(
			"transport: login response carried no token",
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"server": server.Key()},
		)
	}

	result := core.LoginResult{Token: token}
	if parsed.ExpiresInSeconds > 0 {
		result.TTL = time.Duration(parsed.ExpiresInSeconds) * time.Second
	}
	return result, nil
}

func (t *RESTLoginTransport) loginURL(server core.Server) (string, error) {
	base, err := url.Parse(strings.TrimSpace(server.BaseURL))
	if err != nil {
		return "", transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid base url",
			http.StatusBadRequest,
			map[string]any{"server": server.Key()},
		)
	}
	path := strings.TrimSpace(t.LoginPath)
	if path == "" {
		path = defaultLoginPath
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid login path",
			http.StatusBadRequest,
			map[string]any{"login_path": path},
		)
	}
	return base.ResolveReference(ref).String(), nil
}

// classifyLoginStatus maps a non-2xx login status to a structured error. Only
// 401 and 403 carry the auth category that makes the coordinator clear the
// saved credential; every other failure keeps it.
func classifyLoginStatus(status int, server core.Server) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return transportError(
			"transport: server rejected credentials",
			goerrors.CategoryAuth,
			status,
			map[string]any{"server": server.Key(), "status_code": status},
		)
	case status == http.StatusForbidden:
		return transportError(
			"transport: server forbids this account",
			goerrors.CategoryAuthz,
			status,
			map[string]any{"server": server.Key(), "status_code": status},
		)
	case status >= http.StatusInternalServerError || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return transportError(
			fmt.Sprintf("transport: login failed with status %d", status),
			goerrors.CategoryExternal,
			status,
			map[string]any{"server": server.Key(), "status_code": status},
		)
	default:
		return transportError(
			fmt.Sprintf("transport: login failed with status %d", status),
			goerrors.CategoryOperation,
			status,
			map[string]any{"server": server.Key(), "status_code": status},
		)
	}
}

var _ core.LoginTransport = (*RESTLoginTransport)(nil)
