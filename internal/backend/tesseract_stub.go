//go:build !cgo || !linux

package backend

import (
	"context"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/pkg/models"
)

const tesseractSupported = false

// TesseractBackend is the no-cgo placeholder. Every operation reports the
// backend as unavailable; builds without cgo still link and run with text
// recognition disabled.
type TesseractBackend struct {
	language string
}

var _ TextRecognizer = (*TesseractBackend)(nil)

func NewTesseractBackend(language string) *TesseractBackend {
	return &TesseractBackend{language: language}
}

func (b *TesseractBackend) Name() string { return NameTesseract }

func (b *TesseractBackend) Init(ctx context.Context) error {
	return apperrors.NewBackendUnavailableError("tesseract support not compiled into this build", nil)
}

func (b *TesseractBackend) SelfTest(ctx context.Context) error {
	return apperrors.NewBackendUnavailableError("tesseract support not compiled into this build", nil)
}

func (b *TesseractBackend) Close() error { return nil }

func (b *TesseractBackend) RecognizeText(ctx context.Context, imagePath string) (*models.OCRBlock, error) {
	return nil, apperrors.NewBackendUnavailableError("tesseract support not compiled into this build", nil)
}
