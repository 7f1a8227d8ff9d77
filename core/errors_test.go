package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestIsUnauthorizedStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil",
			err:  nil,
		},
		{
			name: "status_401",
			err:  goerrors.New("rejected", goerrors.CategoryExternal).WithCode(http.StatusUnauthorized),
			want: true,
		},
		{
			name: "status_403",
			err:  goerrors.New("forbidden", goerrors.CategoryExternal).WithCode(http.StatusForbidden),
			want: true,
		},
		{
			name: "auth_category_without_code",
			err:  goerrors.New("rejected", goerrors.CategoryAuth),
			want: true,
		},
		{
			name: "wrapped_401",
			err:  fmt.Errorf("request failed: %w", unauthorizedStatusError()),
			want: true,
		},
		{
			name: "status_500",
			err:  serverFailureError(),
		},
		{
			name: "message_mentions_unauthorized_but_not_classified",
			err:  errors.New("server said: 401 Unauthorized"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUnauthorizedStatus(tc.err); got != tc.want {
				t.Fatalf("IsUnauthorizedStatus = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestIsTransientNetwork(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil",
			err:  nil,
		},
		{
			name: "dial_failure",
			err:  &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			want: true,
		},
		{
			name: "deadline_exceeded",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "external_category",
			err:  serverFailureError(),
			want: true,
		},
		{
			name: "network_error_constructor",
			err:  NewNetworkError("core: login unreachable", errors.New("no route to host")),
			want: true,
		},
		{
			name: "unauthorized_is_never_transient",
			err:  unauthorizedStatusError(),
		},
		{
			name: "plain_error",
			err:  errors.New("something else"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransientNetwork(tc.err); got != tc.want {
				t.Fatalf("IsTransientNetwork = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestIsNoCredentials(t *testing.T) {
	if !IsNoCredentials(NewNoCredentialsError("core: no saved password")) {
		t.Fatalf("expected no-credentials classification")
	}
	if IsNoCredentials(NewUnauthenticatedError("core: retry exhausted")) {
		t.Fatalf("expected unauthenticated to not classify as no-credentials")
	}
	if IsNoCredentials(nil) {
		t.Fatalf("expected nil to not classify")
	}
}

func TestErrorConstructorsFillEnvelope(t *testing.T) {
	unauth := NewUnauthenticatedError("core: token rejected")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", unauth.Code)
	}
	if unauth.TextCode != MediaErrorUnauthenticated {
		t.Fatalf("unexpected text code %q", unauth.TextCode)
	}

	network := NewNetworkError("core: login unreachable", errors.New("refused"))
	if network.Category != goerrors.CategoryExternal {
		t.Fatalf("unexpected category %v", network.Category)
	}
	if IsUnauthorizedStatus(network) {
		t.Fatalf("network error must never classify as unauthorized")
	}

	config := NewConfigurationError("core: bad base url", nil)
	if config.Code != http.StatusBadRequest || config.TextCode != MediaErrorConfiguration {
		t.Fatalf("unexpected envelope: code=%d text=%q", config.Code, config.TextCode)
	}
}

func TestMediaErrorMapperNormalizesForeignErrors(t *testing.T) {
	mapped := mediaErrorMapper(errors.New("boom"))
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.Code == 0 || mapped.TextCode == "" {
		t.Fatalf("expected filled envelope, got code=%d text=%q", mapped.Code, mapped.TextCode)
	}

	already := NewNoCredentialsError("core: nothing saved")
	if remapped := mediaErrorMapper(already); remapped.TextCode != MediaErrorNoCredentials {
		t.Fatalf("expected existing classification preserved, got %q", remapped.TextCode)
	}
}
