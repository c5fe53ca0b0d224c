package app

import (
	"context"
	"log/slog"

	"ytupload/internal/auth"
	"ytupload/internal/secrets"
	"ytupload/pkg/config"
)

func BuildService(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	manager := auth.NewManager(auth.ManagerOptions{
		Store: auth.NewFileStore(cfg.TokenPath),
		Authorizer: &secretsAuthorizer{
			location: cfg.ClientSecrets,
			project:  cfg.GCPProject,
			next: &auth.LocalServerAuthorizer{
				Port:   cfg.Auth.CallbackPort,
				Logger: logger,
			},
		},
		Logger: logger,
	})

	return NewService(ServiceOptions{
		Config:  cfg,
		Manager: manager,
		Logger:  logger,
	})
}

// secretsAuthorizer loads the OAuth client on first use, so runs with a
// usable stored credential never need the client secrets.
type secretsAuthorizer struct {
	location string
	project  string
	next     auth.Authorizer
}

func (a *secretsAuthorizer) Authorize(ctx context.Context, client *secrets.ClientConfig, scopes []string) (*auth.Credential, error) {
	if client == nil {
		var err error
		client, err = secrets.Load(ctx, a.location, a.project)
		if err != nil {
			return nil, err
		}
	}
	return a.next.Authorize(ctx, client, scopes)
}
