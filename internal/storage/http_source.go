package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/logger"
)

// HTTPSource downloads http(s) image references to a temporary file.
type HTTPSource struct {
	client *http.Client
}

func NewHTTPSource(timeout time.Duration) *HTTPSource {
	transport := &http.Transport{
		// Connection pooling sized for single image downloads
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPSource{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			// Prevent redirect chains from wandering off
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Materialize fetches the image into a temp file. Transient failures are
// retried up to 3 attempts; 4xx responses fail immediately.
func (s *HTTPSource) Materialize(ctx context.Context, source string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", noopCleanup, apperrors.NewInputError(fmt.Sprintf("invalid image URL: %s", source), err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "screenshot-inspector/1.0")

	resp, err := s.fetchWithRetry(req)
	if err != nil {
		return "", noopCleanup, apperrors.NewInputError(
			fmt.Sprintf("failed to fetch image: %s", source), err)
	}
	defer resp.Body.Close()

	ext := path.Ext(req.URL.Path)
	if ext == "" {
		ext = ".png"
	}

	tmpFile, err := os.CreateTemp("", "fetched-*"+ext)
	if err != nil {
		return "", noopCleanup, apperrors.NewInputError("failed to create temp file for download", err)
	}
	tmpPath := tmpFile.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		cleanup()
		return "", noopCleanup, apperrors.NewInputError(
			fmt.Sprintf("failed to download image: %s", source), err)
	}
	if err := tmpFile.Close(); err != nil {
		cleanup()
		return "", noopCleanup, apperrors.NewInputError("failed to finalize downloaded image", err)
	}

	logger.WithField("source", source).Debug("image downloaded to temp file")
	return tmpPath, cleanup, nil
}

func (s *HTTPSource) fetchWithRetry(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode == http.StatusOK {
			return resp, nil
		} else {
			resp.Body.Close()
			// 4xx client errors are non-retryable
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, fmt.Errorf("client error: status code %d", resp.StatusCode)
			}
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}

		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("unknown error")
	}
	return nil, fmt.Errorf("failed after 3 attempts: %w", lastErr)
}
