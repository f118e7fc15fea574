package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/pkg/models"
)

// Panel geometry. Text width uses a fixed 7px/char heuristic; correctness
// of the layout is only guaranteed for canvases at least the minimum panel
// footprint.
const (
	charWidth  = 7
	lineHeight = 25
	tagHeight  = 25
	padding    = 10
)

var (
	objectBoxColor  = color.RGBA{R: 0, G: 255, B: 0, A: 220}
	objectTagColor  = color.RGBA{R: 0, G: 255, B: 0, A: 180}
	ocrBoxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 220}
	ocrTagColor     = color.RGBA{R: 255, G: 0, B: 0, A: 180}
	panelBackground = color.RGBA{R: 0, G: 0, B: 0, A: 180}
	textBlack       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	textWhite       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	titleYellow     = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Renderer draws annotated feedback images from analysis reports. The
// source image is reopened from disk and never mutated; all drawing
// happens on a clone.
type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// Render produces the feedback PNG for a report and returns its path.
func (r *Renderer) Render(imagePath string, report *models.AnalysisReport, stem string, now time.Time) (string, error) {
	source, err := imaging.Open(imagePath)
	if err != nil {
		return "", apperrors.NewRenderError(fmt.Sprintf("failed to reopen image: %s", imagePath), err)
	}

	canvas := imaging.Clone(source)

	r.drawObjects(canvas, report.Analysis.Objects)
	if report.Analysis.OCR.Detected {
		r.drawOCRRegions(canvas, report.Analysis.OCR.Regions)
	}
	r.drawInfoPanel(canvas, report, now)
	r.drawSummaryPanel(canvas, report)

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", apperrors.NewRenderError(
			fmt.Sprintf("failed to create output directory: %s", r.outputDir), err)
	}

	outPath := filepath.Join(r.outputDir,
		fmt.Sprintf("%s_feedback_%s.png", stem, now.Format("20060102_150405")))
	if err := imaging.Save(canvas, outPath); err != nil {
		return "", apperrors.NewRenderError(fmt.Sprintf("failed to save feedback image: %s", outPath), err)
	}

	logger.WithField("path", outPath).Info("visual feedback rendered")
	return outPath, nil
}

// drawObjects draws a green bounding box plus a "label (0.92)" tag with a
// filled background for every detected object.
func (r *Renderer) drawObjects(canvas *image.NRGBA, objects []models.DetectedObject) {
	for _, obj := range objects {
		box := obj.BBox
		drawRectOutline(canvas, box.X, box.Y, box.Width, box.Height, objectBoxColor, 2)

		tag := fmt.Sprintf("%s (%.2f)", obj.Label, obj.Confidence)
		fillRect(canvas, box.X, box.Y-tagHeight, len(tag)*charWidth, tagHeight, objectTagColor)
		drawText(canvas, box.X+5, box.Y-20, tag, textBlack)
	}
}

// drawOCRRegions draws red boxes around recognized text regions.
func (r *Renderer) drawOCRRegions(canvas *image.NRGBA, regions []models.OCRRegion) {
	for _, region := range regions {
		box := region.BBox
		drawRectOutline(canvas, box.X, box.Y, box.Width, box.Height, ocrBoxColor, 2)

		fillRect(canvas, box.X, box.Y-tagHeight, len(region.Text)*charWidth, tagHeight, ocrTagColor)
		drawText(canvas, box.X+5, box.Y-20, fmt.Sprintf("%s (%.2f)", region.Text, region.Confidence), textWhite)
	}
}

// drawInfoPanel draws the top-left panel with timestamp, source filename,
// resolution and aspect ratio.
func (r *Renderer) drawInfoPanel(canvas *image.NRGBA, report *models.AnalysisReport, now time.Time) {
	info := report.ImageDetails.ImageInfo
	lines := []string{
		fmt.Sprintf("Analyzed: %s", now.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Source: %s", report.ImageDetails.FileInfo.Filename),
		fmt.Sprintf("Resolution: %s (%s)", info.Resolution, info.Orientation),
		fmt.Sprintf("Aspect ratio: %s", info.AspectRatioName),
	}

	x, y := padding, padding
	width := maxLineWidth(lines) + 2*padding
	height := len(lines)*lineHeight + padding

	fillRect(canvas, x-5, y-5, width, height, panelBackground)
	for i, line := range lines {
		drawText(canvas, x, y+i*lineHeight+8, line, textWhite)
	}
}

// drawSummaryPanel draws the bottom-left panel with object count, OCR
// presence and the description.
func (r *Renderer) drawSummaryPanel(canvas *image.NRGBA, report *models.AnalysisReport) {
	textDetected := "no"
	if report.Analysis.OCR.Detected {
		textDetected = "yes"
	}
	lines := []string{
		"Analysis summary",
		fmt.Sprintf("Objects detected: %d", len(report.Analysis.Objects)),
		fmt.Sprintf("Text detected: %s", textDetected),
		fmt.Sprintf("Description: %s", report.Analysis.Description),
	}

	bounds := canvas.Bounds()
	x := padding
	y := bounds.Max.Y - len(lines)*lineHeight - 15
	width := maxLineWidth(lines) + 2*padding
	height := len(lines)*lineHeight + padding

	fillRect(canvas, x-5, y-5, width, height, panelBackground)
	for i, line := range lines {
		fg := textWhite
		if i == 0 {
			fg = titleYellow
		}
		drawText(canvas, x, y+i*lineHeight+8, line, fg)
	}
}

func maxLineWidth(lines []string) int {
	max := 0
	for _, line := range lines {
		if w := len(line) * charWidth; w > max {
			max = w
		}
	}
	return max
}

// drawRectOutline draws an axis-aligned rectangle outline of the given
// stroke thickness, clipped to the canvas.
func drawRectOutline(canvas *image.NRGBA, x, y, width, height int, c color.RGBA, thickness int) {
	fillRect(canvas, x, y, width, thickness, c)                    // top
	fillRect(canvas, x, y+height-thickness, width, thickness, c)   // bottom
	fillRect(canvas, x, y, thickness, height, c)                   // left
	fillRect(canvas, x+width-thickness, y, thickness, height, c)   // right
}

// fillRect alpha-blends a filled rectangle onto the canvas, clipped to the
// canvas bounds.
func fillRect(canvas *image.NRGBA, x, y, width, height int, c color.RGBA) {
	rect := image.Rect(x, y, x+width, y+height).Intersect(canvas.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(canvas, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// drawText renders a single line with the built-in fixed-width face. The y
// coordinate is the top of the line, not the baseline.
func drawText(canvas *image.NRGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	drawer.DrawString(text)
}
