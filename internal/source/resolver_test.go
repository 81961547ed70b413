package source

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"yolotester/internal/config"
	"yolotester/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger(&config.Config{LogDirectory: t.TempDir(), LogFile: "test.log", LogMaxSizeMB: 1})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func newServer(t *testing.T, status int, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/people-detection.mp4" {
			t.Errorf("Expected the fixed asset path, got %s", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestEnsure_ExistingFileSkipsNetwork(t *testing.T) {
	srv, hits := newServer(t, http.StatusOK, []byte("video"))
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("local"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	r := NewResolverWithClient(srv.Client(), srv.URL+"/people-detection.mp4", newTestLogger(t))
	if err := r.Ensure(context.Background(), path); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	if n := atomic.LoadInt32(hits); n != 0 {
		t.Errorf("Expected no request for existing file, got %d", n)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "local" {
		t.Errorf("Existing file was modified: %q", data)
	}
}

func TestEnsure_MissingFileDownloadsExactBody(t *testing.T) {
	body := bytes.Repeat([]byte{0x00, 0x01, 0xfe, 0xff}, 4096)
	srv, hits := newServer(t, http.StatusOK, body)
	path := filepath.Join(t.TempDir(), "missing.mp4")

	r := NewResolverWithClient(srv.Client(), srv.URL+"/people-detection.mp4", newTestLogger(t))
	if err := r.Ensure(context.Background(), path); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("Expected exactly one request, got %d", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Downloaded file missing: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Errorf("Downloaded %d bytes, want %d identical bytes", len(data), len(body))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the downloaded file in the directory, got %d entries", len(entries))
	}
}

func TestEnsure_Non200LeavesNoFile(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusNoContent} {
		srv, hits := newServer(t, status, []byte("not found"))
		path := filepath.Join(t.TempDir(), "missing.mp4")

		r := NewResolverWithClient(srv.Client(), srv.URL+"/people-detection.mp4", newTestLogger(t))
		err := r.Ensure(context.Background(), path)

		var dlErr *DownloadError
		if !errors.As(err, &dlErr) {
			t.Fatalf("status %d: expected DownloadError, got %v", status, err)
		}
		if dlErr.Status != status {
			t.Errorf("Expected status %d, got %d", status, dlErr.Status)
		}
		if n := atomic.LoadInt32(hits); n != 1 {
			t.Errorf("status %d: expected exactly one request, got %d", status, n)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("status %d: no file should be left at %s", status, path)
		}
	}
}

func TestEnsure_TransportError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, nil)
	url := srv.URL + "/people-detection.mp4"
	srv.Close()
	path := filepath.Join(t.TempDir(), "missing.mp4")

	r := NewResolverWithClient(http.DefaultClient, url, newTestLogger(t))
	err := r.Ensure(context.Background(), path)

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Expected DownloadError, got %v", err)
	}
	if dlErr.Status != 0 || dlErr.Err == nil {
		t.Errorf("Expected transport failure without status, got %+v", dlErr)
	}
}

func TestNewResolver_UsesFixedURL(t *testing.T) {
	r := NewResolver(0, newTestLogger(t))
	if r.url != FallbackURL {
		t.Errorf("Expected fallback URL, got %s", r.url)
	}
}
