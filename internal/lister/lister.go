package lister

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// MaxResults is the largest page playlistItems.list will return.
const MaxResults = 50

type Upload struct {
	Title   string
	VideoID string
}

type Options struct {
	// Endpoint overrides the API base URL.
	Endpoint   string
	MaxResults int64
	Logger     *slog.Logger
}

// Lister reads the authenticated user's uploads playlist.
type Lister struct {
	service    *youtube.Service
	maxResults int64
	logger     *slog.Logger
}

// New builds a Lister on an HTTP client that already carries credentials.
func New(ctx context.Context, client *http.Client, opts Options) (*Lister, error) {
	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > MaxResults {
		maxResults = MaxResults
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Lister{service: service, maxResults: maxResults, logger: logger}, nil
}

// ListRecentUploads returns the newest entries of the uploads playlist in the
// order the API returns them. A user without a channel or without videos gets
// an empty slice.
func (l *Lister) ListRecentUploads(ctx context.Context) ([]Upload, error) {
	channels, err := l.service.Channels.List([]string{"contentDetails"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	if len(channels.Items) == 0 {
		l.logger.Info("No channel found")
		return []Upload{}, nil
	}

	details := channels.Items[0].ContentDetails
	if details == nil || details.RelatedPlaylists == nil || details.RelatedPlaylists.Uploads == "" {
		l.logger.Info("No uploads playlist found", "channel", channels.Items[0].Id)
		return []Upload{}, nil
	}
	playlistID := details.RelatedPlaylists.Uploads

	items, err := l.service.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(l.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		// A channel that never uploaded can report its uploads playlist as missing.
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			l.logger.Info("No videos found", "playlist", playlistID)
			return []Upload{}, nil
		}
		return nil, fmt.Errorf("failed to list playlist %s: %w", playlistID, err)
	}

	uploads := make([]Upload, 0, len(items.Items))
	for _, item := range items.Items {
		if item.Snippet == nil {
			continue
		}
		u := Upload{Title: item.Snippet.Title}
		if item.Snippet.ResourceId != nil {
			u.VideoID = item.Snippet.ResourceId.VideoId
		}
		uploads = append(uploads, u)
	}

	if len(uploads) == 0 {
		l.logger.Info("No videos found", "playlist", playlistID)
	}
	return uploads, nil
}

func (u Upload) String() string {
	return fmt.Sprintf("%s (%s)", u.Title, u.VideoID)
}
