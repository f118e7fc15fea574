package storage

import (
	"context"
	"fmt"
	"os"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/pkg/validation"
)

// ImageSource materializes an image reference into a local file path the
// pipeline can read. The cleanup function removes any temporary file the
// materialization created; it is always safe to call.
type ImageSource interface {
	Materialize(ctx context.Context, source string) (path string, cleanup func(), err error)
}

func noopCleanup() {}

// FileSource serves plain filesystem paths. A screenshot grabber or any
// other producer that already writes to disk plugs in through this.
type FileSource struct{}

func NewFileSource() *FileSource {
	return &FileSource{}
}

func (s *FileSource) Materialize(ctx context.Context, source string) (string, func(), error) {
	info, err := os.Stat(source)
	if err != nil {
		return "", noopCleanup, apperrors.NewInputError(
			fmt.Sprintf("image file not accessible: %s", source), err)
	}
	if info.IsDir() {
		return "", noopCleanup, apperrors.NewInputError(
			fmt.Sprintf("image path is a directory: %s", source), nil)
	}
	return source, noopCleanup, nil
}

// CompositeSource routes references to the matching source by kind.
type CompositeSource struct {
	validator *validation.SourceValidator
	file      ImageSource
	http      ImageSource
	azure     ImageSource
}

func NewCompositeSource(validator *validation.SourceValidator, file, http, azure ImageSource) *CompositeSource {
	return &CompositeSource{
		validator: validator,
		file:      file,
		http:      http,
		azure:     azure,
	}
}

func (s *CompositeSource) Materialize(ctx context.Context, source string) (string, func(), error) {
	if err := s.validator.ValidateSource(source); err != nil {
		return "", noopCleanup, err
	}

	switch s.validator.Classify(source) {
	case validation.SourceKindHTTP:
		if s.http == nil {
			return "", noopCleanup, apperrors.NewInputError("http sources are not configured", nil)
		}
		return s.http.Materialize(ctx, source)
	case validation.SourceKindAzure:
		if s.azure == nil {
			return "", noopCleanup, apperrors.NewInputError("azure sources are not configured", nil)
		}
		return s.azure.Materialize(ctx, source)
	default:
		return s.file.Materialize(ctx, source)
	}
}
