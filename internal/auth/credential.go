package auth

import (
	"slices"
	"time"

	"golang.org/x/oauth2"
)

// expiryDelta matches the early-expiry window used by golang.org/x/oauth2.
const expiryDelta = 10 * time.Second

// Credential is the persisted access/refresh token pair together with the
// client it was issued to and the scopes that were granted.
type Credential struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

func (c *Credential) Expired(now time.Time) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return c.Expiry.Round(0).Add(-expiryDelta).Before(now)
}

func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && !c.Expired(now)
}

// HasScopes reports whether every requested scope was granted.
func (c *Credential) HasScopes(scopes []string) bool {
	for _, s := range scopes {
		if !slices.Contains(c.Scopes, s) {
			return false
		}
	}
	return true
}

func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// withToken returns a copy of c updated from tok. The stored refresh token is
// kept when tok does not carry one, since refresh responses usually omit it.
func (c *Credential) withToken(tok *oauth2.Token) *Credential {
	next := *c
	next.Scopes = slices.Clone(c.Scopes)
	next.AccessToken = tok.AccessToken
	next.Expiry = tok.Expiry
	if tok.TokenType != "" {
		next.TokenType = tok.TokenType
	}
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	return &next
}

// OAuthConfig rebuilds the oauth2 client configuration the credential was
// issued under, which is all a refresh needs.
func (c *Credential) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.TokenURI},
		Scopes:       c.Scopes,
	}
}
