package upload

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDriverUpload(t *testing.T) {
	rs, srv := newResumableServer(t)

	path := filepath.Join(t.TempDir(), "dummy_video.mp4")
	payload := bytes.Repeat([]byte{0x42}, ChunkGranularity+10)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDriver(srv.Client(), DriverOptions{
		Endpoint:  srv.URL + "/upload",
		ChunkSize: ChunkGranularity,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	var reports []int
	id, err := d.Upload(context.Background(), path, Metadata{
		Title:    "My Dummy Video",
		Category: PeopleAndBlogs,
		Privacy:  PrivacyPrivate,
	}, func(p int) { reports = append(reports, p) })
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if id != "vid123" {
		t.Errorf("id = %q, want vid123", id)
	}
	if !bytes.Equal(rs.received.Bytes(), payload) {
		t.Error("server did not receive the file contents")
	}
	if len(reports) != 1 || reports[0] != 99 {
		t.Errorf("progress reports = %v, want [99]", reports)
	}
}

func TestDriverUploadErrors(t *testing.T) {
	_, srv := newResumableServer(t)
	dir := t.TempDir()
	d := NewDriver(srv.Client(), DriverOptions{
		Endpoint: srv.URL + "/upload",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	meta := Metadata{Title: "t", Category: PeopleAndBlogs, Privacy: PrivacyPrivate}

	tests := []struct {
		name string
		path string
		meta Metadata
	}{
		{name: "missingFile", path: filepath.Join(dir, "missing.mp4"), meta: meta},
		{name: "directory", path: dir, meta: meta},
		{name: "invalidMetadata", path: filepath.Join(dir, "missing.mp4"), meta: Metadata{Privacy: PrivacyPrivate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := d.Upload(context.Background(), tt.path, tt.meta, nil)
			if err == nil {
				t.Fatal("Upload() should fail")
			}
			if id != "" {
				t.Errorf("id = %q, want empty", id)
			}
		})
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("abc"); got != "https://youtube.com/watch?v=abc" {
		t.Errorf("WatchURL() = %q", got)
	}
}
