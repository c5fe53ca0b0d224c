package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"ytupload/pkg/httputil"
)

// resumableServer is an in-memory resumable upload endpoint.
type resumableServer struct {
	t *testing.T

	mu       sync.Mutex
	metadata youtube.Video
	query    string
	declared int64
	received bytes.Buffer
	ranges   []string
	videoID  string

	// failPut, when set, answers the PUT with this status instead.
	failPut int
}

func newResumableServer(t *testing.T) (*resumableServer, *httptest.Server) {
	rs := &resumableServer{t: t, videoID: "vid123"}
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)
	return rs, srv
}

func (rs *resumableServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		rs.query = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&rs.metadata); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rs.declared, _ = strconv.ParseInt(r.Header.Get("X-Upload-Content-Length"), 10, 64)
		w.Header().Set("Location", "http://"+r.Host+"/session/1")
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && r.URL.Path == "/session/1":
		rs.ranges = append(rs.ranges, r.Header.Get("Content-Range"))
		if rs.failPut != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rs.failPut)
			_, _ = io.WriteString(w, `{"error":{"code":`+strconv.Itoa(rs.failPut)+`,"message":"quota exceeded"}}`)
			return
		}
		if _, err := io.Copy(&rs.received, r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if int64(rs.received.Len()) < rs.declared {
			w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", rs.received.Len()-1))
			w.WriteHeader(statusResumeIncomplete)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(youtube.Video{Id: rs.videoID, Snippet: rs.metadata.Snippet})

	default:
		http.NotFound(w, r)
	}
}

func testVideo() *youtube.Video {
	return Metadata{Title: "Test", Description: "desc", Category: "22", Privacy: PrivacyPrivate}.Video()
}

func testOptions(endpoint string, chunkSize int64) ResumableOptions {
	return ResumableOptions{
		Endpoint:  endpoint,
		ChunkSize: chunkSize,
		Retry: httputil.RetryConfig{
			MaxRetries:   1,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestResumableTransferChunked(t *testing.T) {
	rs, srv := newResumableServer(t)

	payload := bytes.Repeat([]byte("x"), 2*ChunkGranularity+1000)
	transfer, err := NewResumableTransfer(srv.Client(), bytes.NewReader(payload), int64(len(payload)), testVideo(),
		testOptions(srv.URL+"/upload", ChunkGranularity))
	if err != nil {
		t.Fatalf("NewResumableTransfer() error = %v", err)
	}

	var reports []int
	id, err := Run(context.Background(), transfer, func(p int) { reports = append(reports, p) })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if id != "vid123" {
		t.Errorf("id = %q, want vid123", id)
	}
	if !bytes.Equal(rs.received.Bytes(), payload) {
		t.Errorf("server received %d bytes, want %d identical bytes", rs.received.Len(), len(payload))
	}

	size := len(payload)
	wantRanges := []string{
		fmt.Sprintf("bytes 0-%d/%d", ChunkGranularity-1, size),
		fmt.Sprintf("bytes %d-%d/%d", ChunkGranularity, 2*ChunkGranularity-1, size),
		fmt.Sprintf("bytes %d-%d/%d", 2*ChunkGranularity, size-1, size),
	}
	if strings.Join(rs.ranges, ";") != strings.Join(wantRanges, ";") {
		t.Errorf("ranges = %v, want %v", rs.ranges, wantRanges)
	}
	if len(reports) != 2 || reports[0] != 49 || reports[1] != 99 {
		t.Errorf("progress reports = %v, want [49 99]", reports)
	}

	if rs.query != "uploadType=resumable&part=snippet,status" {
		t.Errorf("query = %q", rs.query)
	}
	if rs.metadata.Snippet == nil || rs.metadata.Snippet.Title != "Test" {
		t.Errorf("metadata snippet = %+v", rs.metadata.Snippet)
	}
	if rs.metadata.Status == nil || rs.metadata.Status.PrivacyStatus != PrivacyPrivate {
		t.Errorf("metadata status = %+v", rs.metadata.Status)
	}
}

func TestResumableTransferWholeFile(t *testing.T) {
	rs, srv := newResumableServer(t)

	payload := bytes.Repeat([]byte("y"), ChunkGranularity+7)
	transfer, err := NewResumableTransfer(srv.Client(), bytes.NewReader(payload), int64(len(payload)), testVideo(),
		testOptions(srv.URL+"/upload", WholeFile))
	if err != nil {
		t.Fatalf("NewResumableTransfer() error = %v", err)
	}

	progress, video, err := transfer.NextChunk(context.Background())
	if err != nil {
		t.Fatalf("NextChunk() error = %v", err)
	}
	if video == nil || video.Id != "vid123" {
		t.Fatalf("video = %+v, want id vid123", video)
	}
	if progress != 1 {
		t.Errorf("progress = %v, want 1", progress)
	}
	if len(rs.ranges) != 1 {
		t.Errorf("chunks = %d, want 1", len(rs.ranges))
	}
}

func TestResumableTransferEmptyFile(t *testing.T) {
	rs, srv := newResumableServer(t)

	transfer, err := NewResumableTransfer(srv.Client(), bytes.NewReader(nil), 0, testVideo(),
		testOptions(srv.URL+"/upload", 0))
	if err != nil {
		t.Fatalf("NewResumableTransfer() error = %v", err)
	}

	id, err := Run(context.Background(), transfer, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if id != "vid123" {
		t.Errorf("id = %q, want vid123", id)
	}
	if len(rs.ranges) != 1 || rs.ranges[0] != "bytes */0" {
		t.Errorf("ranges = %v, want [bytes */0]", rs.ranges)
	}
}

func TestResumableTransferAPIError(t *testing.T) {
	rs, srv := newResumableServer(t)
	rs.failPut = http.StatusForbidden

	payload := []byte("data")
	transfer, err := NewResumableTransfer(srv.Client(), bytes.NewReader(payload), int64(len(payload)), testVideo(),
		testOptions(srv.URL+"/upload", 0))
	if err != nil {
		t.Fatalf("NewResumableTransfer() error = %v", err)
	}

	id, err := Run(context.Background(), transfer, nil)
	if err == nil {
		t.Fatal("Run() should fail")
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("error = %v, want ErrUploadFailed", err)
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *googleapi.Error", err)
	}
	if apiErr.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", apiErr.Code)
	}
	if len(rs.ranges) != 1 {
		t.Errorf("chunk attempts = %d, want 1", len(rs.ranges))
	}
}

func TestResumableTransferSessionWithoutLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	transfer, err := NewResumableTransfer(srv.Client(), bytes.NewReader([]byte("a")), 1, testVideo(),
		testOptions(srv.URL, 0))
	if err != nil {
		t.Fatalf("NewResumableTransfer() error = %v", err)
	}

	if _, _, err := transfer.NextChunk(context.Background()); err == nil || !strings.Contains(err.Error(), "Location") {
		t.Errorf("NextChunk() error = %v, want missing Location error", err)
	}
}

func TestNewResumableTransferValidation(t *testing.T) {
	client := http.DefaultClient
	media := bytes.NewReader(nil)

	tests := []struct {
		name      string
		client    *http.Client
		video     *youtube.Video
		size      int64
		chunkSize int64
		wantErr   bool
	}{
		{name: "defaults", client: client, video: testVideo(), chunkSize: 0},
		{name: "granular", client: client, video: testVideo(), chunkSize: 4 * ChunkGranularity},
		{name: "wholeFile", client: client, video: testVideo(), chunkSize: WholeFile},
		{name: "notGranular", client: client, video: testVideo(), chunkSize: 1000, wantErr: true},
		{name: "negative", client: client, video: testVideo(), chunkSize: -2, wantErr: true},
		{name: "nilClient", video: testVideo(), wantErr: true},
		{name: "nilVideo", client: client, wantErr: true},
		{name: "negativeSize", client: client, video: testVideo(), size: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResumableTransfer(tt.client, media, tt.size, tt.video, ResumableOptions{ChunkSize: tt.chunkSize})
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommittedOffset(t *testing.T) {
	tests := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{header: "", want: 0},
		{header: "bytes=0-262143", want: 262144},
		{header: "bytes=0-0", want: 1},
		{header: "bytes=0", wantErr: true},
		{header: "bytes=0-abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := committedOffset(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("committedOffset(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("committedOffset(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"clip.mp4":  "video/mp4",
		"CLIP.MP4":  "video/mp4",
		"notes.txt": "video/*",
		"noext":     "video/*",
	}
	for path, want := range tests {
		if got := ContentTypeFor(path); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", path, got, want)
		}
	}
}
