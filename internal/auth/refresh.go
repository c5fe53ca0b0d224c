package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

var _ Refresher = OAuthRefresher{}

// OAuthRefresher refreshes against the token endpoint recorded in the
// credential. HTTPClient, when set, is used for the token request.
type OAuthRefresher struct {
	HTTPClient *http.Client
}

func (r OAuthRefresher) Refresh(ctx context.Context, cred *Credential) (*oauth2.Token, error) {
	if cred.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	if cred.TokenURI == "" {
		return nil, errors.New("credential has no token endpoint")
	}

	if r.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.HTTPClient)
	}

	// An empty access token forces the source to hit the endpoint.
	src := cred.OAuthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return tok, nil
}
