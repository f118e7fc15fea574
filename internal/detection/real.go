package detection

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"go-screenshot-inspector/internal/backend"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/internal/registry"
	"go-screenshot-inspector/pkg/models"
)

// RealProvider resolves detection backends from the registry, loading them
// on demand. The first usable detector in the candidate order runs; when
// none is usable the provider degrades to an empty result carrying the
// failure text instead of failing the pipeline.
type RealProvider struct {
	registry       *registry.Registry
	detectorNames  []string
	recognizerName string
	minConfidence  float64
}

var _ Provider = (*RealProvider)(nil)

func NewRealProvider(reg *registry.Registry, minConfidence float64) *RealProvider {
	return &RealProvider{
		registry:       reg,
		detectorNames:  []string{backend.NameVision, backend.NameRegions},
		recognizerName: backend.NameTesseract,
		minConfidence:  minConfidence,
	}
}

func (p *RealProvider) Detect(ctx context.Context, in Input) Result {
	var failures []string

	result := Result{
		Objects: []models.DetectedObject{},
		OCR:     models.OCRBlock{Regions: []models.OCRRegion{}},
	}

	detector, name, err := p.resolveDetector(ctx)
	if err != nil {
		failures = append(failures, err.Error())
	} else {
		objects, detectErr := detector.DetectObjects(ctx, in.Path)
		if detectErr != nil {
			failures = append(failures, detectErr.Error())
			logger.WithFields(logrus.Fields{
				"backend": name,
				"path":    in.Path,
			}).WithError(detectErr).Error("object detection failed")
		} else {
			result.Objects = p.filterByConfidence(objects)
			result.ModelUsed = name
		}
	}

	if ocr, ocrErr := p.recognizeText(ctx, in.Path); ocrErr != nil {
		failures = append(failures, ocrErr.Error())
	} else if ocr != nil {
		result.OCR = *ocr
	}

	result.Err = strings.Join(failures, "; ")
	return result
}

// resolveDetector finds the first candidate that is loaded or loads on
// demand.
func (p *RealProvider) resolveDetector(ctx context.Context) (backend.ObjectDetector, string, error) {
	var lastErr error
	for _, name := range p.detectorNames {
		if !p.registry.IsLoaded(name) {
			if err := p.registry.Load(ctx, name); err != nil {
				lastErr = err
				continue
			}
		}
		detector, err := p.registry.Detector(name)
		if err != nil {
			lastErr = err
			continue
		}
		return detector, name, nil
	}
	return nil, "", lastErr
}

func (p *RealProvider) recognizeText(ctx context.Context, path string) (*models.OCRBlock, error) {
	if !p.registry.IsLoaded(p.recognizerName) {
		if err := p.registry.Load(ctx, p.recognizerName); err != nil {
			return nil, err
		}
	}
	recognizer, err := p.registry.Recognizer(p.recognizerName)
	if err != nil {
		return nil, err
	}
	return recognizer.RecognizeText(ctx, path)
}

func (p *RealProvider) filterByConfidence(objects []models.DetectedObject) []models.DetectedObject {
	filtered := make([]models.DetectedObject, 0, len(objects))
	for _, obj := range objects {
		if obj.Confidence >= p.minConfidence {
			filtered = append(filtered, obj)
		}
	}
	return filtered
}
