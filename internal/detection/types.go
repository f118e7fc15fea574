package detection

import (
	"context"

	"go-screenshot-inspector/pkg/models"
)

// Input identifies the image a provider should analyze. Width and height
// come from the metadata pass so providers need not re-decode.
type Input struct {
	Path   string
	Width  int
	Height int
}

// Result is what a provider produces. A failed detection degrades to an
// empty object list with the failure recorded in Err; providers never
// panic or abort the pipeline.
type Result struct {
	Objects   []models.DetectedObject
	OCR       models.OCRBlock
	ModelUsed string
	Err       string
}

// Provider turns an image into a detection result.
type Provider interface {
	Detect(ctx context.Context, in Input) Result
}
