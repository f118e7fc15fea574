//go:build cgo && linux

package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/pkg/models"
)

const tesseractSupported = true

// TesseractBackend recognizes text through native Tesseract bindings.
// A fresh gosseract client is created per call; the library is not safe
// for concurrent use on a shared client.
type TesseractBackend struct {
	language string
	ready    bool
}

var _ TextRecognizer = (*TesseractBackend)(nil)

func NewTesseractBackend(language string) *TesseractBackend {
	return &TesseractBackend{language: language}
}

func (b *TesseractBackend) Name() string { return NameTesseract }

func (b *TesseractBackend) Init(ctx context.Context) error {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(b.language); err != nil {
		return apperrors.NewBackendLoadError(
			fmt.Sprintf("tesseract language %q unavailable", b.language), err)
	}
	b.ready = true
	return nil
}

// SelfTest verifies the native library reports a version.
func (b *TesseractBackend) SelfTest(ctx context.Context) error {
	if !b.ready {
		return apperrors.NewBackendLoadError("tesseract backend not initialized", nil)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if client.Version() == "" {
		return apperrors.NewBackendLoadError("tesseract reported no version", nil)
	}
	return nil
}

func (b *TesseractBackend) Close() error {
	b.ready = false
	return nil
}

func (b *TesseractBackend) RecognizeText(ctx context.Context, imagePath string) (*models.OCRBlock, error) {
	if !b.ready {
		return nil, apperrors.NewBackendLoadError("tesseract backend not loaded", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(b.language); err != nil {
		return nil, apperrors.NewBackendLoadError("failed to set OCR language", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to set OCR image: %s", imagePath), err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, apperrors.NewBackendLoadError("OCR failed", err)
	}
	text = strings.TrimSpace(text)

	block := &models.OCRBlock{
		Detected: text != "",
		Text:     text,
		Regions:  []models.OCRRegion{},
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Word boxes are best-effort; the full text stands on its own
		return block, nil
	}

	var confidenceSum float64
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		confidence := float64(box.Confidence) / 100.0
		confidenceSum += confidence
		block.Regions = append(block.Regions, models.OCRRegion{
			Text:       box.Word,
			Confidence: confidence,
			BBox: models.BoundingBox{
				X:      box.Box.Min.X,
				Y:      box.Box.Min.Y,
				Width:  box.Box.Dx(),
				Height: box.Box.Dy(),
			},
		})
	}
	if len(block.Regions) > 0 {
		block.Confidence = confidenceSum / float64(len(block.Regions))
	}
	return block, nil
}
