package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/pkg/validation"
)

func TestFileSource_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	source := NewFileSource()
	got, cleanup, err := source.Materialize(context.Background(), path)
	defer cleanup()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if got != path {
		t.Errorf("Expected path %q, got %q", path, got)
	}

	// Cleanup of a plain file source must not remove the file
	cleanup()
	if _, err := os.Stat(path); err != nil {
		t.Error("File source cleanup must not delete the original file")
	}
}

func TestFileSource_Missing(t *testing.T) {
	source := NewFileSource()
	_, _, err := source.Materialize(context.Background(), "/nonexistent/capture.png")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInput) {
		t.Errorf("Expected input error, got: %v", err)
	}
}

func TestFileSource_Directory(t *testing.T) {
	source := NewFileSource()
	_, _, err := source.Materialize(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("Expected error for a directory path")
	}
}

func TestHTTPSource_Download(t *testing.T) {
	payload := []byte("fake-png-content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	source := NewHTTPSource(5 * time.Second)
	path, cleanup, err := source.Materialize(context.Background(), server.URL+"/capture.png")
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	defer cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("Downloaded content does not match the served payload")
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Cleanup must remove the temp file")
	}
}

func TestHTTPSource_ClientErrorNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := NewHTTPSource(5 * time.Second)
	_, _, err := source.Materialize(context.Background(), server.URL+"/missing.png")
	if err == nil {
		t.Fatal("Expected 404 to fail")
	}
	if requests != 1 {
		t.Errorf("Expected a single attempt for a client error, got %d", requests)
	}
}

func TestCompositeSource_RoutesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	composite := NewCompositeSource(validation.NewSourceValidator(), NewFileSource(), nil, nil)
	got, cleanup, err := composite.Materialize(context.Background(), path)
	defer cleanup()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if got != path {
		t.Errorf("Expected file routing to return %q, got %q", path, got)
	}
}

func TestCompositeSource_RejectsInvalidSource(t *testing.T) {
	composite := NewCompositeSource(validation.NewSourceValidator(), NewFileSource(), nil, nil)

	_, _, err := composite.Materialize(context.Background(), "notes.txt")
	if err == nil {
		t.Fatal("Expected validation failure for unsupported extension")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got: %v", err)
	}
}

func TestCompositeSource_UnconfiguredScheme(t *testing.T) {
	composite := NewCompositeSource(validation.NewSourceValidator(), NewFileSource(), nil, nil)

	_, _, err := composite.Materialize(context.Background(), "https://example.com/capture.png")
	if err == nil {
		t.Fatal("Expected error when http source is not configured")
	}
}

func TestParseAzureRef(t *testing.T) {
	container, blob, err := parseAzureRef("azure://screenshots/runs/42.png")
	if err != nil {
		t.Fatalf("parseAzureRef failed: %v", err)
	}
	if container != "screenshots" || blob != "runs/42.png" {
		t.Errorf("Unexpected parse result: container=%q blob=%q", container, blob)
	}

	if _, _, err := parseAzureRef("azure://onlycontainer"); err == nil {
		t.Error("Expected error for a reference without a blob path")
	}
}
