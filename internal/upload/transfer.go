package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"ytupload/pkg/httputil"
)

const (
	DefaultEndpoint  = "https://www.googleapis.com/upload/youtube/v3/videos"
	DefaultChunkSize = 8 << 20
	// ChunkGranularity is the multiple every non-final chunk must be sized to.
	ChunkGranularity = 256 << 10
	// WholeFile sends the payload as a single chunk.
	WholeFile = -1
)

const statusResumeIncomplete = 308

var _ Transfer = (*ResumableTransfer)(nil)

type ResumableOptions struct {
	Endpoint    string
	ChunkSize   int64
	ContentType string
	Retry       httputil.RetryConfig
	Logger      *slog.Logger
}

// ResumableTransfer implements the YouTube resumable upload protocol: one
// POST opens an upload session, then each NextChunk PUTs the next byte range.
type ResumableTransfer struct {
	client      *http.Client
	opener      *httputil.RetryClient
	endpoint    string
	media       io.ReaderAt
	size        int64
	chunkSize   int64
	contentType string
	video       *youtube.Video
	logger      *slog.Logger

	sessionURI string
	offset     int64
}

// NewResumableTransfer prepares an upload of size bytes read from media. The
// client must already attach credentials, as an oauth2 client does.
func NewResumableTransfer(client *http.Client, media io.ReaderAt, size int64, video *youtube.Video, opts ResumableOptions) (*ResumableTransfer, error) {
	if client == nil {
		return nil, errors.New("nil HTTP client")
	}
	if video == nil {
		return nil, errors.New("nil video metadata")
	}
	if size < 0 {
		return nil, fmt.Errorf("invalid media size %d", size)
	}

	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize != WholeFile && (chunkSize < 0 || chunkSize%ChunkGranularity != 0) {
		return nil, fmt.Errorf("chunk size %d must be a positive multiple of %d", chunkSize, ChunkGranularity)
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "video/*"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ResumableTransfer{
		client:      client,
		opener:      httputil.NewRetryClient(client, opts.Retry),
		endpoint:    endpoint,
		media:       media,
		size:        size,
		chunkSize:   chunkSize,
		contentType: contentType,
		video:       video,
		logger:      logger,
	}, nil
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".3gp":  "video/3gpp",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// ContentTypeFor guesses the media type from a file name.
func ContentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); strings.HasPrefix(t, "video/") {
		return t
	}
	return "video/*"
}

func (t *ResumableTransfer) NextChunk(ctx context.Context) (float64, *youtube.Video, error) {
	if t.sessionURI == "" {
		uri, err := t.open(ctx)
		if err != nil {
			return 0, nil, err
		}
		t.sessionURI = uri
	}

	n := t.size - t.offset
	if t.chunkSize != WholeFile && n > t.chunkSize {
		n = t.chunkSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.sessionURI, io.NewSectionReader(t.media, t.offset, n))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create chunk request: %w", err)
	}
	req.ContentLength = n
	if n == 0 {
		req.Body = http.NoBody
	}
	req.Header.Set("Content-Type", t.contentType)
	req.Header.Set("Content-Range", contentRange(t.offset, n, t.size))

	t.logger.Debug("Sending chunk", "offset", t.offset, "length", n, "size", t.size)

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send chunk: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case statusResumeIncomplete:
		next, err := committedOffset(resp.Header.Get("Range"))
		if err != nil {
			return 0, nil, err
		}
		if next <= t.offset && n > 0 {
			return 0, nil, fmt.Errorf("server made no progress at offset %d", t.offset)
		}
		t.offset = next
		return t.progress(), nil, nil

	case http.StatusOK, http.StatusCreated:
		var video youtube.Video
		if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
			return 0, nil, fmt.Errorf("failed to parse response: %w", err)
		}
		t.offset = t.size
		return 1, &video, nil

	default:
		return 0, nil, googleapi.CheckResponse(resp)
	}
}

// open starts the upload session and returns its URI. No media has been sent
// yet, so transient failures are retried.
func (t *ResumableTransfer) open(ctx context.Context) (string, error) {
	body, err := json.Marshal(t.video)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	url := fmt.Sprintf("%s?uploadType=resumable&part=%s", t.endpoint, strings.Join(parts(t.video), ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", t.contentType)
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(t.size, 10))

	resp, err := t.opener.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to start upload session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := googleapi.CheckResponse(resp); err != nil {
		return "", err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.New("upload session response has no Location header")
	}

	t.logger.Debug("Opened upload session", "size", t.size)
	return location, nil
}

func (t *ResumableTransfer) progress() float64 {
	if t.size == 0 {
		return 1
	}
	return float64(t.offset) / float64(t.size)
}

func parts(v *youtube.Video) []string {
	var p []string
	if v.Snippet != nil {
		p = append(p, "snippet")
	}
	if v.Status != nil {
		p = append(p, "status")
	}
	return p
}

func contentRange(offset, n, size int64) string {
	if n == 0 {
		return fmt.Sprintf("bytes */%d", size)
	}
	return fmt.Sprintf("bytes %d-%d/%d", offset, offset+n-1, size)
}

// committedOffset returns the next byte to send given a 308 Range header of
// the form "bytes=0-N". A missing header means nothing was stored.
func committedOffset(header string) (int64, error) {
	if header == "" {
		return 0, nil
	}
	_, last, ok := strings.Cut(strings.TrimPrefix(header, "bytes="), "-")
	if !ok {
		return 0, fmt.Errorf("malformed Range header %q", header)
	}
	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed Range header %q: %w", header, err)
	}
	return end + 1, nil
}
