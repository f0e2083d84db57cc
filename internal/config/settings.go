package config

import (
	"fmt"
	"net/url"
	"strings"
)

const tokenPath = "/api/pow/token"

// Settings holds the values consulted on every token request.
type Settings struct {
	ServerURL    string `env:"POW_SERVICE_SERVER_URL, report" yaml:"pow_service_server_url"`
	APIKey       string `env:"POW_SERVICE_API_KEY" yaml:"pow_service_api_key"`
	ProxyEnabled bool   `env:"POW_SERVICE_PROXY_ENABLED, report" yaml:"pow_service_proxy_enabled"`
	ProxyURL     string `env:"POW_SERVICE_PROXY_URL, report" yaml:"pow_service_proxy_url"`
}

// Configured reports whether both the server URL and the API key are set.
func (s Settings) Configured() bool {
	return s.ServerURL != "" && s.APIKey != ""
}

// TokenEndpoint returns the URL of the token endpoint. Trailing slashes on
// the server URL are dropped.
func (s Settings) TokenEndpoint() string {
	return strings.TrimRight(s.ServerURL, "/") + tokenPath
}

// Proxy returns the proxy to route requests through, or nil when proxying
// is disabled or no proxy URL is set.
func (s Settings) Proxy() (*url.URL, error) {
	if !s.ProxyEnabled || s.ProxyURL == "" {
		return nil, nil
	}

	u, err := url.Parse(s.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}

	return u, nil
}

func (s Settings) String() string {
	key := ""
	if s.APIKey != "" {
		key = "********"
	}

	return fmt.Sprintf(
		"server_url=%q api_key=%q proxy_enabled=%t proxy_url=%q",
		s.ServerURL,
		key,
		s.ProxyEnabled,
		s.ProxyURL,
	)
}
