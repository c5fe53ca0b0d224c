package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"ytupload/internal/secrets"
)

const (
	DefaultCallbackPort = 8080
	defaultAuthTimeout  = 5 * time.Minute
	shutdownTimeout     = 2 * time.Second
)

var _ Authorizer = (*LocalServerAuthorizer)(nil)

// LocalServerAuthorizer runs the installed-app consent flow: it listens on a
// loopback port, sends the user to the consent page and exchanges the code
// delivered to the redirect.
type LocalServerAuthorizer struct {
	// Port is the callback port. Zero picks DefaultCallbackPort; a negative
	// value picks any free port.
	Port    int
	Timeout time.Duration
	// OpenURL launches the consent page. Defaults to the system browser.
	OpenURL func(string) error
	// Out receives the consent URL in case the browser does not open.
	Out    io.Writer
	Logger *slog.Logger
}

type callbackResult struct {
	code string
	err  error
}

func (a *LocalServerAuthorizer) Authorize(ctx context.Context, client *secrets.ClientConfig, scopes []string) (*Credential, error) {
	if client == nil {
		return nil, errors.New("no OAuth client configured")
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", a.listenPort()))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURL := client.RedirectURL(port)
	callbackPath := "/"
	if u, err := url.Parse(redirectURL); err == nil && u.Path != "" {
		callbackPath = u.Path
	}

	state, err := newState()
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	oauthConfig := client.OAuthConfig(redirectURL, scopes)
	results := make(chan callbackResult, 1)

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           callbackHandler(callbackPath, state, results),
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			deliver(results, callbackResult{err: err})
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	authURL := oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	out := a.Out
	if out == nil {
		out = os.Stderr
	}
	_, _ = fmt.Fprintf(out, "Please visit this URL to authorize this application:\n%s\n", authURL)

	openURL := a.OpenURL
	if openURL == nil {
		openURL = browser.OpenURL
	}
	if err := openURL(authURL); err != nil {
		logger.Debug("Could not open browser", "error", err)
	}

	logger.Info("Waiting for authorization", "redirect", redirectURL)

	timeout := a.Timeout
	if timeout == 0 {
		timeout = defaultAuthTimeout
	}

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, errors.New("authentication timed out")
	}

	tok, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		TokenURI:     client.TokenURI,
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		Scopes:       grantedScopes(tok, scopes),
		Expiry:       tok.Expiry,
	}, nil
}

func (a *LocalServerAuthorizer) listenPort() string {
	switch {
	case a.Port < 0:
		return "0"
	case a.Port == 0:
		return fmt.Sprint(DefaultCallbackPort)
	default:
		return fmt.Sprint(a.Port)
	}
}

func callbackHandler(path, state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.Error(w, "Invalid callback URL", http.StatusNotFound)
			return
		}

		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			deliver(results, callbackResult{err: fmt.Errorf("consent denied: %s", e)})
			_, _ = fmt.Fprint(w, "Authorization was denied. You can close this window.")
			return
		}
		if q.Get("state") != state {
			deliver(results, callbackResult{err: errors.New("state mismatch in callback")})
			http.Error(w, "Invalid state", http.StatusBadRequest)
			return
		}

		code := q.Get("code")
		if code == "" {
			deliver(results, callbackResult{err: errors.New("no code in callback")})
			http.Error(w, "No authorization code received", http.StatusBadRequest)
			return
		}

		deliver(results, callbackResult{code: code})
		_, _ = fmt.Fprint(w, "Authentication successful! Please return to the console.")
	})
}

// deliver keeps the first callback result and drops the rest.
func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// grantedScopes prefers the scope list returned by the token endpoint and
// falls back to what was requested.
func grantedScopes(tok *oauth2.Token, requested []string) []string {
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		return strings.Fields(s)
	}
	return append([]string(nil), requested...)
}
