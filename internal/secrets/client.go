// Package secrets loads the OAuth client configuration for installed
// applications from a local file, a Cloud Storage object or Secret Manager.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrInvalidClientSecrets = errors.New("invalid client secrets")

// ClientConfig is the client section of a Google client secrets file.
type ClientConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

type clientSecretsFile struct {
	Installed *ClientConfig `json:"installed"`
	Web       *ClientConfig `json:"web"`
}

// Parse decodes a client secrets document. Either the "installed" or the
// "web" section is accepted, "installed" winning when both are present.
func Parse(data []byte) (*ClientConfig, error) {
	var f clientSecretsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidClientSecrets, err)
	}

	cfg := f.Installed
	if cfg == nil {
		cfg = f.Web
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: missing installed or web section", ErrInvalidClientSecrets)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_id or client_secret", ErrInvalidClientSecrets)
	}

	if cfg.AuthURI == "" {
		cfg.AuthURI = google.Endpoint.AuthURL
	}
	if cfg.TokenURI == "" {
		cfg.TokenURI = google.Endpoint.TokenURL
	}
	return cfg, nil
}

// RedirectURL returns the loopback redirect for the given port, keeping the
// host and path of the first registered redirect URI when there is one.
func (c *ClientConfig) RedirectURL(port int) string {
	u := &url.URL{Scheme: "http", Host: "localhost", Path: "/"}
	if len(c.RedirectURIs) > 0 {
		if parsed, err := url.Parse(c.RedirectURIs[0]); err == nil && parsed.Host != "" {
			u.Scheme = parsed.Scheme
			u.Host = parsed.Hostname()
			if parsed.Path != "" {
				u.Path = parsed.Path
			}
		}
	}
	u.Host = net.JoinHostPort(u.Host, strconv.Itoa(port))
	return u.String()
}

func (c *ClientConfig) OAuthConfig(redirectURL string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURI,
			TokenURL: c.TokenURI,
		},
		RedirectURL: redirectURL,
		Scopes:      scopes,
	}
}
