package auth

import "golang.org/x/oauth2/clientcredentials"

// DefaultAPIKeyHeader carries APIKey when no header is configured.
const DefaultAPIKeyHeader = "X-Api-Key"

// Conf holds the credentials of a geocoding or routing gateway. OAuth2
// client credentials take precedence over a static API key. An empty Conf
// means anonymous access.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
	APIKey       string   `json:"api_key"`
	APIKeyHeader string   `json:"api_key_header"`
}

// OAuth2 reports whether client credentials are configured.
func (c Conf) OAuth2() bool { return c.ClientID != "" && c.TokenURL != "" }

// Enabled reports whether any credential is configured.
func (c Conf) Enabled() bool { return c.OAuth2() || c.APIKey != "" }

func (c Conf) toOauth2Config() *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
