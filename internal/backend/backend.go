package backend

import (
	"context"

	"go-screenshot-inspector/pkg/models"
)

// Canonical backend names. LoadOrder is the fixed order LoadAll walks.
const (
	NameVision    = "vision"
	NameRegions   = "regions"
	NameTesseract = "tesseract"
)

var LoadOrder = []string{NameVision, NameRegions, NameTesseract}

// Backend is a loadable detection-model backend. Init prepares the backend
// for use; SelfTest performs a cheap sanity check after Init.
type Backend interface {
	Name() string
	Init(ctx context.Context) error
	SelfTest(ctx context.Context) error
	Close() error
}

// ObjectDetector locates labeled objects in an image file.
type ObjectDetector interface {
	Backend
	DetectObjects(ctx context.Context, imagePath string) ([]models.DetectedObject, error)
}

// TextRecognizer extracts text regions from an image file.
type TextRecognizer interface {
	Backend
	RecognizeText(ctx context.Context, imagePath string) (*models.OCRBlock, error)
}

// Probe reports which backends this build and environment can support.
// Resolved once at startup; a false entry means loading that backend will
// fail with a backend-unavailable error.
type Probe struct {
	Vision    bool
	Regions   bool
	Tesseract bool
}

// ProbeCapabilities inspects the build and configuration.
func ProbeCapabilities(visionEnabled bool) Probe {
	return Probe{
		Vision:    visionEnabled,
		Regions:   true,
		Tesseract: tesseractSupported,
	}
}

// Supports reports whether the named backend is available.
func (p Probe) Supports(name string) bool {
	switch name {
	case NameVision:
		return p.Vision
	case NameRegions:
		return p.Regions
	case NameTesseract:
		return p.Tesseract
	default:
		return false
	}
}
