package metadata

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	apperrors "go-screenshot-inspector/internal/errors"
)

// writeTestPNG creates a solid-color PNG at the given path.
func writeTestPNG(t *testing.T, path string, width, height int, fill color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestExtract_BasicProperties(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.png")
	writeTestPNG(t, path, 640, 480, color.RGBA{R: 100, G: 150, B: 200, A: 255})

	extractor := NewExtractor(false)
	details, err := extractor.Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	info := details.ImageInfo
	if info.Width != 640 || info.Height != 480 {
		t.Errorf("Expected 640x480, got %dx%d", info.Width, info.Height)
	}
	if info.Resolution != "640x480" {
		t.Errorf("Expected resolution '640x480', got %q", info.Resolution)
	}

	wantRatio := 640.0 / 480.0
	if math.Abs(info.AspectRatio-wantRatio) > 1e-9 {
		t.Errorf("Expected aspect ratio %v, got %v", wantRatio, info.AspectRatio)
	}
	if info.AspectRatioName != "4:3 (standard)" {
		t.Errorf("Expected '4:3 (standard)', got %q", info.AspectRatioName)
	}
	if info.Orientation != "landscape" || !info.IsLandscape || info.IsPortrait {
		t.Errorf("Expected landscape orientation, got %+v", info)
	}
	if info.Format != "PNG" {
		t.Errorf("Expected format PNG, got %q", info.Format)
	}

	fi := details.FileInfo
	if fi.Filename != "capture.png" {
		t.Errorf("Expected filename capture.png, got %q", fi.Filename)
	}
	if fi.Extension != ".png" {
		t.Errorf("Expected extension .png, got %q", fi.Extension)
	}
	if fi.FilesizeBytes <= 0 {
		t.Errorf("Expected positive file size, got %d", fi.FilesizeBytes)
	}
	if math.Abs(fi.FilesizeKB-float64(fi.FilesizeBytes)/1024.0) > 1e-9 {
		t.Errorf("KB size inconsistent with byte size")
	}
	if details.ImageInfo.ColorInfo.Stats != nil {
		t.Error("Expected no color stats when extraction is disabled")
	}
}

func TestExtract_PortraitOrientation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tall.png")
	writeTestPNG(t, path, 480, 640, color.White)

	extractor := NewExtractor(false)
	details, err := extractor.Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	info := details.ImageInfo
	if info.Orientation != "portrait" || !info.IsPortrait || info.IsLandscape {
		t.Errorf("Expected portrait orientation, got %+v", info)
	}
	if info.AspectRatioName != "3:4 (portrait standard)" {
		t.Errorf("Expected '3:4 (portrait standard)', got %q", info.AspectRatioName)
	}
}

func TestExtract_SquareOrientation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "square.png")
	writeTestPNG(t, path, 100, 100, color.White)

	extractor := NewExtractor(false)
	details, err := extractor.Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	info := details.ImageInfo
	if info.Orientation != "square" {
		t.Errorf("Expected square orientation, got %q", info.Orientation)
	}
	if info.IsPortrait {
		t.Error("Square image must not be portrait")
	}
	// Width >= height counts as landscape-capable, matching the report contract
	if !info.IsLandscape {
		t.Error("Square image keeps the landscape flag set")
	}
}

func TestExtract_ColorStats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solid.png")
	writeTestPNG(t, path, 20, 20, color.RGBA{R: 100, G: 150, B: 200, A: 255})

	extractor := NewExtractor(true)
	details, err := extractor.Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	stats := details.ImageInfo.ColorInfo.Stats
	if stats == nil {
		t.Fatal("Expected color stats to be present")
	}
	if stats.AvgColorRGB != [3]int{100, 150, 200} {
		t.Errorf("Expected avg color [100 150 200], got %v", stats.AvgColorRGB)
	}
	if stats.AvgColorHex != "#6496c8" {
		t.Errorf("Expected hex #6496c8, got %q", stats.AvgColorHex)
	}

	wantBrightness := (100.0 + 150.0 + 200.0) / 3.0
	if math.Abs(stats.Brightness-wantBrightness) > 1e-6 {
		t.Errorf("Expected brightness %v, got %v", wantBrightness, stats.Brightness)
	}
	wantPercent := wantBrightness / 255.0 * 100.0
	if math.Abs(stats.BrightnessPercent-wantPercent) > 1e-6 {
		t.Errorf("Expected brightness percent %v, got %v", wantPercent, stats.BrightnessPercent)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	extractor := NewExtractor(false)

	_, err := extractor.Extract("/nonexistent/path/image.png")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInput) {
		t.Errorf("Expected input error, got: %v", err)
	}
}

func TestExtract_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(path, []byte("not an image at all"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	extractor := NewExtractor(false)
	_, err := extractor.Extract(path)
	if err == nil {
		t.Fatal("Expected error for corrupt file")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInput) {
		t.Errorf("Expected input error, got: %v", err)
	}
}

func TestClassifyColorMode(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	grayInfo := classifyColorMode(gray)
	if grayInfo.Mode != "L" || !grayInfo.IsGrayscale || grayInfo.IsRGB {
		t.Errorf("Unexpected grayscale classification: %+v", grayInfo)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgbaInfo := classifyColorMode(rgba)
	if rgbaInfo.Mode != "RGBA" || !rgbaInfo.HasAlpha || !rgbaInfo.IsRGB {
		t.Errorf("Unexpected RGBA classification: %+v", rgbaInfo)
	}

	ycbcr := image.NewYCbCr(image.Rect(0, 0, 1, 1), image.YCbCrSubsampleRatio444)
	ycbcrInfo := classifyColorMode(ycbcr)
	if ycbcrInfo.Mode != "RGB" || !ycbcrInfo.IsRGB || ycbcrInfo.HasAlpha {
		t.Errorf("Unexpected YCbCr classification: %+v", ycbcrInfo)
	}
}
