package detection

import (
	"context"

	"go-screenshot-inspector/pkg/models"
)

// MockProvider produces fixed detections scaled to the image dimensions.
// It is a pure function of (width, height): identical dimensions always
// yield byte-identical results, which makes it the reference fixture for
// development and pipeline tests.
type MockProvider struct{}

var _ Provider = (*MockProvider)(nil)

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Detect(ctx context.Context, in Input) Result {
	w := float64(in.Width)
	h := float64(in.Height)

	objects := []models.DetectedObject{
		{
			Label:      "window",
			Confidence: 0.92,
			BBox: models.BoundingBox{
				X:      int(w * 0.1),
				Y:      int(h * 0.1),
				Width:  int(w * 0.8),
				Height: int(h * 0.7),
			},
		},
		{
			Label:      "icon",
			Confidence: 0.85,
			BBox: models.BoundingBox{
				X:      int(w * 0.05),
				Y:      int(h * 0.1),
				Width:  int(w * 0.05),
				Height: int(h * 0.067),
			},
		},
		{
			Label:      "text",
			Confidence: 0.76,
			BBox: models.BoundingBox{
				X:      int(w * 0.2),
				Y:      int(h * 0.15),
				Width:  int(w * 0.6),
				Height: int(h * 0.05),
			},
		},
	}

	ocr := models.OCRBlock{
		Detected:   true,
		Confidence: 0.72,
		Text:       "Sample Text - Mock data for debugging.",
		Regions: []models.OCRRegion{
			{
				Text:       "Sample Text",
				Confidence: 0.78,
				BBox: models.BoundingBox{
					X:      int(w * 0.2),
					Y:      int(h * 0.15),
					Width:  int(w * 0.3),
					Height: int(h * 0.05),
				},
			},
			{
				Text:       "Mock data for debugging.",
				Confidence: 0.65,
				BBox: models.BoundingBox{
					X:      int(w * 0.2),
					Y:      int(h * 0.2),
					Width:  int(w * 0.4),
					Height: int(h * 0.05),
				},
			},
		},
	}

	return Result{Objects: objects, OCR: ocr}
}
