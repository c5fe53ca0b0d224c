package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"ytupload/internal/auth"
	"ytupload/internal/lister"
	"ytupload/internal/upload"
	"ytupload/pkg/config"
)

// Service runs the authorized operations of the CLI against one config.
type Service struct {
	cfg            *config.Config
	manager        *auth.Manager
	logger         *slog.Logger
	uploadEndpoint string
	apiEndpoint    string
}

type ServiceOptions struct {
	Config  *config.Config
	Manager *auth.Manager
	Logger  *slog.Logger
	// UploadEndpoint and APIEndpoint override the Google endpoints.
	UploadEndpoint string
	APIEndpoint    string
}

func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:            opts.Config,
		manager:        opts.Manager,
		logger:         logger,
		uploadEndpoint: opts.UploadEndpoint,
		apiEndpoint:    opts.APIEndpoint,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

// Authorize returns a credential for the configured scopes, running the
// consent flow when needed.
func (s *Service) Authorize(ctx context.Context) (*auth.Credential, error) {
	return s.manager.Obtain(ctx, s.cfg.Auth.Scopes)
}

// StoredCredential reads the credential file without refreshing it.
func (s *Service) StoredCredential(ctx context.Context) (*auth.Credential, error) {
	return s.manager.Store().Load(ctx)
}

// ClearCredential deletes the stored credential so the next run asks for
// consent again.
func (s *Service) ClearCredential(ctx context.Context) error {
	c, ok := s.manager.Store().(interface {
		Clear(ctx context.Context) error
	})
	if !ok {
		return fmt.Errorf("credential store %T cannot be cleared", s.manager.Store())
	}
	return c.Clear(ctx)
}

// HTTPClient returns a client that signs requests with the credential and
// persists tokens refreshed while it is in use.
func (s *Service) HTTPClient(ctx context.Context) (*http.Client, error) {
	cred, err := s.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	return s.clientFor(ctx, cred), nil
}

func (s *Service) clientFor(ctx context.Context, cred *auth.Credential) *http.Client {
	ts := auth.NewPersistingTokenSource(ctx, cred, s.manager.Store(), s.logger)
	return oauth2.NewClient(ctx, ts)
}

// DefaultMetadata is the metadata configured for uploads.
func (s *Service) DefaultMetadata() upload.Metadata {
	return upload.Metadata{
		Title:       s.cfg.Upload.Title,
		Description: s.cfg.Upload.Description,
		Category:    s.cfg.Upload.Category,
		Privacy:     s.cfg.Upload.PrivacyStatus,
	}
}

func (s *Service) Upload(ctx context.Context, path string, meta upload.Metadata, progress upload.ProgressFunc) (string, error) {
	// Reject bad metadata before a consent flow could start.
	if err := meta.Validate(); err != nil {
		return "", fmt.Errorf("invalid metadata: %w", err)
	}

	client, err := s.HTTPClient(ctx)
	if err != nil {
		return "", err
	}

	driver := upload.NewDriver(client, upload.DriverOptions{
		Endpoint:  s.uploadEndpoint,
		ChunkSize: s.cfg.Upload.ChunkSize,
		Logger:    s.logger,
	})
	return driver.Upload(ctx, path, meta, progress)
}

func (s *Service) ListRecentUploads(ctx context.Context) ([]lister.Upload, error) {
	cred, err := s.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListRecentUploadsWith(ctx, cred)
}

// ListRecentUploadsWith lists uploads using a credential the caller already
// obtained from Authorize.
func (s *Service) ListRecentUploadsWith(ctx context.Context, cred *auth.Credential) ([]lister.Upload, error) {
	l, err := lister.New(ctx, s.clientFor(ctx, cred), lister.Options{
		Endpoint:   s.apiEndpoint,
		MaxResults: s.cfg.List.MaxResults,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}
	return l.ListRecentUploads(ctx)
}
