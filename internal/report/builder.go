package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-screenshot-inspector/internal/detection"
	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/pkg/models"
)

const reportVersion = "1.0.0"

// Builder assembles analysis reports and persists them as JSON documents.
type Builder struct {
	outputDir string
}

func NewBuilder(outputDir string) *Builder {
	return &Builder{outputDir: outputDir}
}

// BuildInput carries everything one report needs.
type BuildInput struct {
	ImagePath string
	Details   *models.ImageDetails
	Detection detection.Result
	Mock      bool
	Elapsed   time.Duration
}

// Build assembles a complete report. The report is a value document; once
// persisted it is never mutated.
func (b *Builder) Build(in BuildInput) *models.AnalysisReport {
	mode := "real_analysis"
	if in.Mock {
		mode = "mock_analysis"
	}

	objects := in.Detection.Objects
	if objects == nil {
		objects = []models.DetectedObject{}
	}

	ocr := in.Detection.OCR
	if ocr.Regions == nil {
		ocr.Regions = []models.OCRRegion{}
	}

	analysis := models.Analysis{
		Objects:     objects,
		Description: describeObjects(objects),
		Tags:        tagsInFirstOccurrence(objects),
		Confidence:  meanConfidence(objects),
		OCR:         ocr,
	}

	return &models.AnalysisReport{
		Metadata: models.ReportMetadata{
			Version:   reportVersion,
			Mode:      mode,
			ImagePath: in.ImagePath,
		},
		ImageDetails: *in.Details,
		Analysis:     analysis,
		DebugInfo: models.DebugInfo{
			MockData:      in.Mock,
			ModelUsed:     in.Detection.ModelUsed,
			ColorAnalysis: bucketColorAnalysis(in.Details.ImageInfo.ColorInfo.Stats),
		},
		Performance: models.Performance{
			Seconds: in.Elapsed.Seconds(),
			MS:      float64(in.Elapsed.Microseconds()) / 1000.0,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// Persist writes the report as indented JSON. The filename embeds the
// image stem and a second-granularity timestamp; two runs of the same
// image within one second collide, which is accepted.
func (b *Builder) Persist(report *models.AnalysisReport, stem string, now time.Time) (string, error) {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return "", apperrors.NewPersistenceError(
			fmt.Sprintf("failed to create output directory: %s", b.outputDir), err)
	}

	filename := fmt.Sprintf("analysis_%s_%s.json", stem, now.Format("20060102_150405"))
	path := filepath.Join(b.outputDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", apperrors.NewPersistenceError("failed to serialize report", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.NewPersistenceError(fmt.Sprintf("failed to write report: %s", path), err)
	}

	logger.WithField("path", path).Info("analysis report persisted")
	return path, nil
}

// describeObjects builds a one-line enumeration like
// "Detected 2 windows, 1 icon." in first-occurrence order.
func describeObjects(objects []models.DetectedObject) string {
	if len(objects) == 0 {
		return "No objects were detected in this image."
	}

	counts := make(map[string]int)
	var order []string
	for _, obj := range objects {
		if _, seen := counts[obj.Label]; !seen {
			order = append(order, obj.Label)
		}
		counts[obj.Label]++
	}

	parts := make([]string, 0, len(order))
	for _, label := range order {
		count := counts[label]
		if count == 1 {
			parts = append(parts, fmt.Sprintf("1 %s", label))
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", count, label))
		}
	}
	return "Detected " + strings.Join(parts, ", ") + "."
}

// tagsInFirstOccurrence lists each label once, ordered by first appearance.
func tagsInFirstOccurrence(objects []models.DetectedObject) []string {
	seen := make(map[string]bool)
	tags := make([]string, 0, len(objects))
	for _, obj := range objects {
		if !seen[obj.Label] {
			seen[obj.Label] = true
			tags = append(tags, obj.Label)
		}
	}
	return tags
}

// meanConfidence is the arithmetic mean, exactly 0.0 for an empty set.
func meanConfidence(objects []models.DetectedObject) float64 {
	if len(objects) == 0 {
		return 0.0
	}
	var sum float64
	for _, obj := range objects {
		sum += obj.Confidence
	}
	return sum / float64(len(objects))
}

// bucketColorAnalysis maps raw color statistics into coarse buckets.
// Absent statistics default from the 50 midpoint, landing both buckets on
// "medium" with a white dominant color.
func bucketColorAnalysis(stats *models.ColorStats) models.ColorAnalysis {
	brightnessPercent := 50.0
	variance := 50.0
	dominant := "#ffffff"
	if stats != nil {
		brightnessPercent = stats.BrightnessPercent
		variance = stats.ColorVariance
		dominant = stats.AvgColorHex
	}

	brightness := "dark"
	if brightnessPercent > 70 {
		brightness = "bright"
	} else if brightnessPercent > 30 {
		brightness = "medium"
	}

	varianceBucket := "low"
	if variance > 80 {
		varianceBucket = "high"
	} else if variance > 40 {
		varianceBucket = "medium"
	}

	return models.ColorAnalysis{
		EstimatedBrightness: brightness,
		DominantColors:      []string{dominant},
		ColorVariance:       varianceBucket,
	}
}
