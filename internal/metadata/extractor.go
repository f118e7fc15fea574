package metadata

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/pkg/models"
)

// Extractor derives file and image descriptors from a source image on disk.
type Extractor struct {
	extractColorStats bool
}

func NewExtractor(extractColorStats bool) *Extractor {
	return &Extractor{extractColorStats: extractColorStats}
}

// Extract reads the file and decoded-image properties of the image at path.
// A missing, unreadable or undecodable file yields an input error.
func (e *Extractor) Extract(path string) (*models.ImageDetails, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("image file not accessible: %s", path), err)
	}
	if stat.IsDir() {
		return nil, apperrors.NewInputError(fmt.Sprintf("image path is a directory: %s", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to open image: %s", path), err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to decode image: %s", path), err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	ratio := 0.0
	if height > 0 {
		ratio = float64(width) / float64(height)
	}

	orientation := "square"
	if height > width {
		orientation = "portrait"
	} else if width > height {
		orientation = "landscape"
	}

	colorInfo := classifyColorMode(img)
	if e.extractColorStats && colorInfo.IsRGB {
		colorInfo.Stats = computeColorStats(img)
	}

	details := &models.ImageDetails{
		FileInfo: models.FileInfo{
			Filename:      filepath.Base(path),
			Filepath:      absPath,
			FilesizeBytes: stat.Size(),
			FilesizeKB:    float64(stat.Size()) / 1024.0,
			FilesizeMB:    float64(stat.Size()) / (1024.0 * 1024.0),
			ModifiedAt:    stat.ModTime().Format(time.RFC3339),
			Extension:     strings.ToLower(filepath.Ext(path)),
		},
		ImageInfo: models.ImageInfo{
			Width:           width,
			Height:          height,
			Resolution:      fmt.Sprintf("%dx%d", width, height),
			AspectRatio:     ratio,
			AspectRatioName: AspectRatioName(ratio),
			Format:          strings.ToUpper(format),
			Orientation:     orientation,
			IsPortrait:      height > width,
			IsLandscape:     width >= height,
			ColorInfo:       colorInfo,
		},
	}

	logger.WithFields(map[string]interface{}{
		"path":       path,
		"resolution": details.ImageInfo.Resolution,
		"format":     details.ImageInfo.Format,
	}).Debug("extracted image metadata")

	return details, nil
}

// classifyColorMode maps the decoded Go image type to a color mode string
// plus alpha/grayscale/rgb flags.
func classifyColorMode(img image.Image) models.ColorInfo {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return models.ColorInfo{Mode: "L", IsGrayscale: true}
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		return models.ColorInfo{Mode: "RGBA", HasAlpha: true, IsRGB: true}
	case *image.Paletted:
		return models.ColorInfo{Mode: "P", IsRGB: true}
	case *image.CMYK:
		return models.ColorInfo{Mode: "CMYK"}
	default:
		// YCbCr and anything else decodable resolves to plain RGB
		return models.ColorInfo{Mode: "RGB", IsRGB: true}
	}
}
