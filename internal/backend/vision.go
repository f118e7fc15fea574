package backend

import (
	"context"
	"fmt"
	"image"
	"os"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/pkg/models"
)

// VisionBackend detects general objects through the Google Cloud Vision
// object localization feature. Requires application default credentials.
type VisionBackend struct {
	enabled bool
	client  *gvision.ImageAnnotatorClient
}

var _ ObjectDetector = (*VisionBackend)(nil)

func NewVisionBackend(enabled bool) *VisionBackend {
	return &VisionBackend{enabled: enabled}
}

func (b *VisionBackend) Name() string { return NameVision }

func (b *VisionBackend) Init(ctx context.Context) error {
	if !b.enabled {
		return apperrors.NewBackendUnavailableError("vision backend disabled: no credentials configured", nil)
	}
	if b.client != nil {
		if err := b.client.Close(); err != nil {
			logger.WithError(err).Warn("failed to close previous vision client")
		}
		b.client = nil
	}

	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return apperrors.NewBackendLoadError("failed to create vision client", err)
	}
	b.client = client
	return nil
}

func (b *VisionBackend) SelfTest(ctx context.Context) error {
	if b.client == nil {
		return apperrors.NewBackendLoadError("vision client not initialized", nil)
	}
	return nil
}

func (b *VisionBackend) Close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// DetectObjects runs object localization and converts the normalized
// bounding polys to pixel rectangles. Float coordinates are truncated.
func (b *VisionBackend) DetectObjects(ctx context.Context, imagePath string) ([]models.DetectedObject, error) {
	if b.client == nil {
		return nil, apperrors.NewBackendLoadError("vision backend not loaded", nil)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to read image: %s", imagePath), err)
	}

	width, height, err := imageDimensions(imagePath)
	if err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_OBJECT_LOCALIZATION},
				},
			},
		},
	}

	resp, err := b.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, apperrors.NewBackendLoadError("vision API request failed", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}
	if resp.Responses[0].Error != nil {
		return nil, apperrors.NewBackendLoadError(
			fmt.Sprintf("vision API error: %s", resp.Responses[0].Error.Message), nil)
	}

	annotations := resp.Responses[0].LocalizedObjectAnnotations
	objects := make([]models.DetectedObject, 0, len(annotations))
	for _, ann := range annotations {
		box, ok := normalizedPolyToBox(ann.BoundingPoly, width, height)
		if !ok {
			continue
		}
		objects = append(objects, models.DetectedObject{
			Label:      ann.Name,
			Confidence: float64(ann.Score),
			BBox:       box,
		})
	}
	return objects, nil
}

// normalizedPolyToBox converts a normalized bounding poly into a pixel
// rectangle spanning the vertex extremes.
func normalizedPolyToBox(poly *visionpb.BoundingPoly, width, height int) (models.BoundingBox, bool) {
	if poly == nil || len(poly.NormalizedVertices) == 0 {
		return models.BoundingBox{}, false
	}

	minX, minY := 1.0, 1.0
	maxX, maxY := 0.0, 0.0
	for _, v := range poly.NormalizedVertices {
		x := float64(v.X)
		y := float64(v.Y)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	return models.BoundingBox{
		X:      int(minX * float64(width)),
		Y:      int(minY * float64(height)),
		Width:  int((maxX - minX) * float64(width)),
		Height: int((maxY - minY) * float64(height)),
	}, true
}

// imageDimensions reads just the image header.
func imageDimensions(imagePath string) (int, int, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, apperrors.NewInputError(fmt.Sprintf("failed to open image: %s", imagePath), err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, apperrors.NewInputError(fmt.Sprintf("failed to decode image header: %s", imagePath), err)
	}
	return cfg.Width, cfg.Height, nil
}
