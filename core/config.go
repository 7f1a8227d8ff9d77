package core

import (
	"fmt"
	"strings"
	"time"
)

type AuthConfig struct {
	LoginTimeout       time.Duration `koanf:"login_timeout" mapstructure:"login_timeout"`
	PersistTimeout     time.Duration `koanf:"persist_timeout" mapstructure:"persist_timeout"`
	RefreshLeadWindow  time.Duration `koanf:"refresh_lead_window" mapstructure:"refresh_lead_window"`
	ExpiringSoonWindow time.Duration `koanf:"expiring_soon_window" mapstructure:"expiring_soon_window"`
}

type ClientConfig struct {
	TokenHeader     string        `koanf:"token_header" mapstructure:"token_header"`
	TokenQueryParam string        `koanf:"token_query_param" mapstructure:"token_query_param"`
	QueryFallback   bool          `koanf:"query_fallback" mapstructure:"query_fallback"`
	RequestTimeout  time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type Config struct {
	ServiceName string       `koanf:"service_name" mapstructure:"service_name"`
	Auth        AuthConfig   `koanf:"auth" mapstructure:"auth"`
	Client      ClientConfig `koanf:"client" mapstructure:"client"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "mediaclient",
		Auth: AuthConfig{
			LoginTimeout:       30 * time.Second,
			PersistTimeout:     10 * time.Second,
			RefreshLeadWindow:  DefaultTokenRefreshLeadWindow,
			ExpiringSoonWindow: DefaultTokenExpiringSoonWindow,
		},
		Client: ClientConfig{
			TokenHeader:     "X-Media-Token",
			TokenQueryParam: "api_key",
			RequestTimeout:  30 * time.Second,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Client.TokenHeader) == "" {
		return fmt.Errorf("core: client.token_header is required")
	}
	if c.Client.QueryFallback && strings.TrimSpace(c.Client.TokenQueryParam) == "" {
		return fmt.Errorf("core: client.token_query_param is required when query_fallback is enabled")
	}
	return nil
}
