// Package oauth implements the OAuth 2.1 surface consumed by an HTTP
// upstream session: metadata discovery (RFC 8414/9728), dynamic client
// registration (RFC 7591), PKCE (RFC 7636), and the token record persisted
// per server name via an external TokenStore.
package oauth

import "time"

// Metadata is OAuth 2.0 Authorization Server Metadata (RFC 8414).
type Metadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported               []string `json:"grant_types_supported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty"`
}

// ProtectedResourceMetadata is OAuth 2.0 Protected Resource Metadata (RFC 9728).
type ProtectedResourceMetadata struct {
	Resource             string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
	ScopesSupported      []string `json:"scopes_supported,omitempty"`
}

// ClientRegistrationRequest is a Dynamic Client Registration request (RFC 7591).
type ClientRegistrationRequest struct {
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// ClientRegistrationResponse is a Dynamic Client Registration response (RFC 7591).
type ClientRegistrationResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// ClientInformation is the durable half of dynamic registration, persisted
// in the per-server TokenRecord.
type ClientInformation struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// Tokens mirrors golang.org/x/oauth2.Token's shape for the fields this
// package persists; kept as its own type so TokenRecord has no hard
// dependency on the oauth2 package's zero-value/expiry-method quirks.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the access token is past its expiry (with a
// small clock-skew allowance).
func (t Tokens) Expired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt.Add(-30 * time.Second))
}

// TokenRecord is the external TokenStore's unit of storage, keyed by server
// name.
type TokenRecord struct {
	Tokens            *Tokens
	ClientInformation *ClientInformation
	CodeVerifier      string
}
