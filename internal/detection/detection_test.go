package detection

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go-screenshot-inspector/internal/backend"
	"go-screenshot-inspector/internal/registry"
	"go-screenshot-inspector/pkg/models"
)

func TestMockProvider_ExactValues(t *testing.T) {
	provider := NewMockProvider()
	result := provider.Detect(context.Background(), Input{Path: "screen.png", Width: 640, Height: 480})

	if result.Err != "" {
		t.Fatalf("Mock detection must not fail, got: %s", result.Err)
	}
	if len(result.Objects) != 3 {
		t.Fatalf("Expected exactly 3 objects, got %d", len(result.Objects))
	}

	// Heights and offsets reflect float truncation: 480*0.7 truncates to 335,
	// 480*0.15 to 71 and 640*0.6 to 383.
	expected := []models.DetectedObject{
		{Label: "window", Confidence: 0.92, BBox: models.BoundingBox{X: 64, Y: 48, Width: 512, Height: 335}},
		{Label: "icon", Confidence: 0.85, BBox: models.BoundingBox{X: 32, Y: 48, Width: 32, Height: 32}},
		{Label: "text", Confidence: 0.76, BBox: models.BoundingBox{X: 128, Y: 71, Width: 383, Height: 24}},
	}
	for i, want := range expected {
		if !reflect.DeepEqual(result.Objects[i], want) {
			t.Errorf("Object %d mismatch:\n got  %+v\n want %+v", i, result.Objects[i], want)
		}
	}

	ocr := result.OCR
	if !ocr.Detected {
		t.Error("Mock OCR must report detected")
	}
	if ocr.Confidence != 0.72 {
		t.Errorf("Expected OCR confidence 0.72, got %v", ocr.Confidence)
	}
	if len(ocr.Regions) != 2 {
		t.Fatalf("Expected 2 OCR regions, got %d", len(ocr.Regions))
	}
	if ocr.Regions[0].Text != "Sample Text" || ocr.Regions[0].Confidence != 0.78 {
		t.Errorf("Unexpected first OCR region: %+v", ocr.Regions[0])
	}
	if ocr.Regions[1].Text != "Mock data for debugging." || ocr.Regions[1].Confidence != 0.65 {
		t.Errorf("Unexpected second OCR region: %+v", ocr.Regions[1])
	}
}

func TestMockProvider_Deterministic(t *testing.T) {
	provider := NewMockProvider()
	ctx := context.Background()

	first := provider.Detect(ctx, Input{Path: "a.png", Width: 1920, Height: 1080})
	second := provider.Detect(ctx, Input{Path: "b.png", Width: 1920, Height: 1080})

	if !reflect.DeepEqual(first, second) {
		t.Error("Mock results for identical dimensions must be identical")
	}
}

func TestMockProvider_TruncatesCoordinates(t *testing.T) {
	provider := NewMockProvider()
	// 333 * 0.1 = 33.3 -> 33 after truncation
	result := provider.Detect(context.Background(), Input{Width: 333, Height: 333})

	window := result.Objects[0]
	if window.BBox.X != 33 || window.BBox.Y != 33 {
		t.Errorf("Expected truncated coordinates (33, 33), got (%d, %d)", window.BBox.X, window.BBox.Y)
	}
}

// Controllable fake backends for the real-provider tests.

type stubBackend struct {
	name    string
	initErr error
}

func (s *stubBackend) Name() string                       { return s.name }
func (s *stubBackend) Init(ctx context.Context) error     { return s.initErr }
func (s *stubBackend) SelfTest(ctx context.Context) error { return nil }
func (s *stubBackend) Close() error                       { return nil }

type stubDetector struct {
	stubBackend
	objects   []models.DetectedObject
	detectErr error
}

func (s *stubDetector) DetectObjects(ctx context.Context, imagePath string) ([]models.DetectedObject, error) {
	return s.objects, s.detectErr
}

type stubRecognizer struct {
	stubBackend
	block *models.OCRBlock
	err   error
}

func (s *stubRecognizer) RecognizeText(ctx context.Context, imagePath string) (*models.OCRBlock, error) {
	return s.block, s.err
}

func fullProbe() backend.Probe {
	return backend.Probe{Vision: true, Regions: true, Tesseract: true}
}

func TestRealProvider_DetectsAndFilters(t *testing.T) {
	reg := registry.New(fullProbe(), registry.Options{})
	reg.Register(&stubDetector{
		stubBackend: stubBackend{name: backend.NameVision},
		objects: []models.DetectedObject{
			{Label: "button", Confidence: 0.9, BBox: models.BoundingBox{X: 1, Y: 1, Width: 10, Height: 10}},
			{Label: "noise", Confidence: 0.1, BBox: models.BoundingBox{X: 2, Y: 2, Width: 3, Height: 3}},
		},
	})
	reg.Register(&stubRecognizer{
		stubBackend: stubBackend{name: backend.NameTesseract},
		block:       &models.OCRBlock{Detected: true, Text: "hello", Regions: []models.OCRRegion{}},
	})

	provider := NewRealProvider(reg, 0.25)
	result := provider.Detect(context.Background(), Input{Path: "screen.png", Width: 100, Height: 100})

	if len(result.Objects) != 1 || result.Objects[0].Label != "button" {
		t.Errorf("Expected only the confident object, got %+v", result.Objects)
	}
	if result.ModelUsed != backend.NameVision {
		t.Errorf("Expected model %q, got %q", backend.NameVision, result.ModelUsed)
	}
	if !result.OCR.Detected || result.OCR.Text != "hello" {
		t.Errorf("Expected OCR text to flow through, got %+v", result.OCR)
	}
	if result.Err != "" {
		t.Errorf("Expected no recorded failures, got %q", result.Err)
	}
}

func TestRealProvider_FallsBackToNextDetector(t *testing.T) {
	reg := registry.New(fullProbe(), registry.Options{})
	reg.Register(&stubDetector{
		stubBackend: stubBackend{name: backend.NameVision, initErr: errors.New("no credentials")},
	})
	reg.Register(&stubDetector{
		stubBackend: stubBackend{name: backend.NameRegions},
		objects: []models.DetectedObject{
			{Label: "region", Confidence: 0.5, BBox: models.BoundingBox{Width: 5, Height: 5}},
		},
	})
	reg.Register(&stubRecognizer{
		stubBackend: stubBackend{name: backend.NameTesseract},
		block:       &models.OCRBlock{Regions: []models.OCRRegion{}},
	})

	provider := NewRealProvider(reg, 0.25)
	result := provider.Detect(context.Background(), Input{Path: "screen.png"})

	if result.ModelUsed != backend.NameRegions {
		t.Errorf("Expected fallback to %q, got %q", backend.NameRegions, result.ModelUsed)
	}
	if len(result.Objects) != 1 {
		t.Errorf("Expected the fallback detector's objects, got %+v", result.Objects)
	}
}

func TestRealProvider_DegradesToEmptyResult(t *testing.T) {
	// Nothing registered at all
	reg := registry.New(fullProbe(), registry.Options{})
	provider := NewRealProvider(reg, 0.25)

	result := provider.Detect(context.Background(), Input{Path: "screen.png"})

	if result.Objects == nil || len(result.Objects) != 0 {
		t.Errorf("Expected empty (non-nil) object list, got %+v", result.Objects)
	}
	if result.Err == "" {
		t.Error("Expected failure text to be recorded")
	}
	if result.OCR.Detected {
		t.Error("Expected OCR to stay undetected")
	}
}

func TestRealProvider_DetectorErrorRecorded(t *testing.T) {
	reg := registry.New(fullProbe(), registry.Options{})
	reg.Register(&stubDetector{
		stubBackend: stubBackend{name: backend.NameRegions},
		detectErr:   errors.New("decode failure"),
	})

	provider := NewRealProvider(reg, 0.25)
	result := provider.Detect(context.Background(), Input{Path: "screen.png"})

	if len(result.Objects) != 0 {
		t.Errorf("Expected no objects after detector failure, got %+v", result.Objects)
	}
	if result.Err == "" {
		t.Error("Expected detector failure to be recorded in Err")
	}
}
