package upload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

type DriverOptions struct {
	Endpoint  string
	ChunkSize int64
	Logger    *slog.Logger
}

// Driver uploads local files through an authorized HTTP client.
type Driver struct {
	client *http.Client
	opts   DriverOptions
	logger *slog.Logger
}

func NewDriver(client *http.Client, opts DriverOptions) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{client: client, opts: opts, logger: logger}
}

// Upload sends the file at path with meta and returns the new video id.
// progress, if set, is called with the whole percentage after every chunk
// that does not finish the upload.
func (d *Driver) Upload(ctx context.Context, path string, meta Metadata, progress ProgressFunc) (string, error) {
	if err := meta.Validate(); err != nil {
		return "", fmt.Errorf("invalid metadata: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat video file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	transfer, err := NewResumableTransfer(d.client, f, info.Size(), meta.Video(), ResumableOptions{
		Endpoint:    d.opts.Endpoint,
		ChunkSize:   d.opts.ChunkSize,
		ContentType: ContentTypeFor(path),
		Logger:      d.logger,
	})
	if err != nil {
		return "", err
	}

	d.logger.Info("Uploading video", "path", path, "size", info.Size(), "title", meta.Title, "privacy", meta.Privacy)

	id, err := Run(ctx, transfer, progress)
	if err != nil {
		return "", err
	}

	d.logger.Info("Upload complete", "id", id)
	return id, nil
}

// WatchURL returns the public watch page for a video id.
func WatchURL(id string) string {
	return fmt.Sprintf("https://youtube.com/watch?v=%s", id)
}
