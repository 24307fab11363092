// Package config holds the parsed runtime configuration MCPMan consumes.
//
// The configuration file itself is produced by an external loader; this
// package only models the parsed shape and validates it.
package config

import (
	"fmt"
	"regexp"
)

// DefaultTimeoutMS is applied to any ServerConfig that omits TimeoutMS.
const DefaultTimeoutMS = 30_000

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Transport identifies how a Session reaches its upstream server.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// OAuthConfig configures the OAuth 2.1 handshake for an HTTP server.
type OAuthConfig struct {
	ClientName   string   `json:"clientName"`
	RedirectURL  string   `json:"redirectUrl"`
	Scopes       []string `json:"scopes,omitempty"`
	ClientID     string   `json:"clientId,omitempty"`
	ClientSecret string   `json:"clientSecret,omitempty"`
}

// ServerConfig is a tagged union over Transport describing one upstream
// MCP server.
type ServerConfig struct {
	Transport Transport `json:"transport"`

	// stdio
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// http
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	OAuth   *OAuthConfig      `json:"oauth,omitempty"`

	Disabled  bool `json:"disabled,omitempty"`
	TimeoutMS int  `json:"timeout_ms,omitempty"`
}

// Enabled reports whether this server should be connected at startup.
func (c ServerConfig) Enabled() bool {
	return !c.Disabled
}

// Timeout returns the configured timeout, defaulting to DefaultTimeoutMS.
func (c ServerConfig) Timeout() int {
	if c.TimeoutMS <= 0 {
		return DefaultTimeoutMS
	}
	return c.TimeoutMS
}

// Validate checks the tagged-union invariants for a ServerConfig.
func (c ServerConfig) Validate() error {
	switch c.Transport {
	case TransportStdio:
		if c.Command == "" {
			return fmt.Errorf("stdio server requires a command")
		}
	case TransportHTTP:
		if c.URL == "" {
			return fmt.Errorf("http server requires a url")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	return nil
}

// LoggingConfig controls the ambient logging stack (internal/logging).
type LoggingConfig struct {
	Level string `json:"level,omitempty"`
	File  string `json:"file,omitempty"`
}

// Settings is the top-level parsed configuration object.
type Settings struct {
	Version string                  `json:"version"`
	Servers map[string]ServerConfig `json:"servers"`
	Logging LoggingConfig           `json:"logging"`
}

// Validate checks every server name and config in Settings.
func (s Settings) Validate() error {
	for name, cfg := range s.Servers {
		if !namePattern.MatchString(name) {
			return fmt.Errorf("invalid server name %q: must match %s", name, namePattern.String())
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}
	}
	return nil
}

// ValidName reports whether a server name satisfies the naming invariant
// used by both Settings and the install meta-tool.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}
