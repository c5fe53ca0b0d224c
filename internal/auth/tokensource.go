package auth

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*PersistingTokenSource)(nil)

// PersistingTokenSource refreshes like any oauth2 token source and writes
// each newly issued token back to the store, so a long upload that outlives
// the access token leaves a current credential on disk.
type PersistingTokenSource struct {
	ctx    context.Context
	src    oauth2.TokenSource
	store  Store
	logger *slog.Logger

	mu   sync.Mutex
	curr *Credential
}

func NewPersistingTokenSource(ctx context.Context, cred *Credential, store Store, logger *slog.Logger) *PersistingTokenSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistingTokenSource{
		ctx:    ctx,
		src:    cred.OAuthConfig().TokenSource(ctx, cred.Token()),
		store:  store,
		logger: logger,
		curr:   cred,
	}
}

func (s *PersistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken != s.curr.AccessToken {
		s.curr = s.curr.withToken(tok)
		// The new token is still usable when the write fails; only the next
		// run loses it.
		if err := s.store.Save(s.ctx, s.curr); err != nil {
			s.logger.Error("Failed to persist refreshed credential", "error", err)
		} else {
			s.logger.Debug("Persisted refreshed credential", "expiry", s.curr.Expiry)
		}
	}

	return tok, nil
}

// Credential returns the most recent credential seen by the source.
func (s *PersistingTokenSource) Credential() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curr
}
