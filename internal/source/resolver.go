// Package source makes sure an inference input exists locally before it is used.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"yolotester/internal/logger"

	"github.com/dustin/go-humanize"
)

// FallbackURL is the sample video fetched whenever a requested source is missing,
// whatever name the caller asked for.
const FallbackURL = "https://github.com/intel-iot-devkit/sample-videos/blob/master/people-detection.mp4?raw=true"

// DownloadError is returned when the fallback asset could not be fetched.
// Status is 0 when no HTTP response was received.
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download of %s failed with status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download of %s failed: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Doer is the subset of *http.Client the resolver needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver downloads the fallback asset onto missing source paths.
type Resolver struct {
	client Doer
	url    string
	logger *logger.Logger
}

// NewResolver creates a Resolver. A zero timeout leaves the request unbounded.
func NewResolver(timeout time.Duration, logger *logger.Logger) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		url:    FallbackURL,
		logger: logger,
	}
}

// NewResolverWithClient creates a Resolver fetching url through client.
func NewResolverWithClient(client Doer, url string, logger *logger.Logger) *Resolver {
	return &Resolver{client: client, url: url, logger: logger}
}

// Ensure leaves an existing path untouched. Otherwise it issues a single GET for the
// fallback asset and writes the body to path. Nothing is written unless the server
// answers 200.
func (r *Resolver) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat source %s: %w", path, err)
	}

	r.logger.Warning("Source file does not exist: %s. Downloading sample video...", path)
	return r.download(ctx, path)
}

func (r *Resolver) download(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return &DownloadError{URL: r.url, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("Sample video download failed: %v", err)
		return &DownloadError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Sample video download failed with status %d. Check the URL or network connection.", resp.StatusCode)
		return &DownloadError{URL: r.url, Status: resp.StatusCode}
	}

	n, err := writeFile(path, resp.Body)
	if err != nil {
		r.logger.Error("Failed to save sample video to %s: %v", path, err)
		return &DownloadError{URL: r.url, Err: err}
	}

	r.logger.Info("Sample video downloaded: %s (%s)", path, humanize.Bytes(uint64(n)))
	return nil
}

// writeFile streams body into a temporary file next to path and renames it into place.
func writeFile(path string, body io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return n, nil
}
