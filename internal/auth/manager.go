package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"ytupload/internal/secrets"
)

var ErrAuthorization = errors.New("authorization failed")

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, cred *Credential) (*oauth2.Token, error)
}

// Authorizer runs an interactive consent flow and returns a fresh credential.
type Authorizer interface {
	Authorize(ctx context.Context, client *secrets.ClientConfig, scopes []string) (*Credential, error)
}

type ManagerOptions struct {
	Store      Store
	Refresher  Refresher
	Authorizer Authorizer
	// Client is the OAuth client handed to the Authorizer. It is only read
	// when interactive consent is needed.
	Client *secrets.ClientConfig
	Logger *slog.Logger
	Now    func() time.Time
}

type Manager struct {
	store      Store
	refresher  Refresher
	authorizer Authorizer
	client     *secrets.ClientConfig
	logger     *slog.Logger
	now        func() time.Time
}

func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		store:      opts.Store,
		refresher:  opts.Refresher,
		authorizer: opts.Authorizer,
		client:     opts.Client,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if m.refresher == nil {
		m.refresher = OAuthRefresher{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Manager) Store() Store {
	return m.store
}

// Obtain returns a credential covering scopes. A stored credential is used as
// is while valid, refreshed when expired, and replaced through the Authorizer
// when it is missing, under-scoped or cannot be refreshed.
func (m *Manager) Obtain(ctx context.Context, scopes []string) (*Credential, error) {
	stored, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoCredential):
		m.logger.Debug("No stored credential")
	case err != nil:
		m.logger.Warn("Ignoring unreadable credential", "error", err)
		stored = nil
	}

	if stored != nil && stored.HasScopes(scopes) {
		if stored.Valid(m.now()) {
			m.logger.Debug("Using stored credential", "expiry", stored.Expiry)
			return stored, nil
		}

		if stored.RefreshToken != "" {
			tok, err := m.refresh(ctx, stored)
			if err == nil {
				return m.saveRefreshed(ctx, stored, tok)
			}
			m.logger.Warn("Token refresh failed, falling back to interactive authorization", "error", err)
		}
	} else if stored != nil {
		m.logger.Info("Stored credential lacks requested scopes", "granted", stored.Scopes, "requested", scopes)
	}

	return m.authorize(ctx, scopes)
}

func (m *Manager) refresh(ctx context.Context, stored *Credential) (*oauth2.Token, error) {
	tok, err := m.refresher.Refresh(ctx, stored)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, errors.New("refresh returned no access token")
	}
	return tok, nil
}

func (m *Manager) saveRefreshed(ctx context.Context, stored *Credential, tok *oauth2.Token) (*Credential, error) {
	cred := stored.withToken(tok)
	if err := m.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	m.logger.Info("Refreshed access token", "expiry", cred.Expiry)
	return cred, nil
}

func (m *Manager) authorize(ctx context.Context, scopes []string) (*Credential, error) {
	if m.authorizer == nil {
		return nil, fmt.Errorf("%w: interactive authorization unavailable", ErrAuthorization)
	}

	cred, err := m.authorizer.Authorize(ctx, m.client, scopes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthorization, err)
	}
	if cred == nil || cred.AccessToken == "" {
		return nil, fmt.Errorf("%w: no token received", ErrAuthorization)
	}

	if err := m.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	m.logger.Info("Authorization complete", "scopes", cred.Scopes)
	return cred, nil
}
