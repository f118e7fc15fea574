package metadata

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"go-screenshot-inspector/pkg/models"
)

// computeColorStats derives the numeric color addendum from the decoded
// pixels. Brightness is the mean over all RGB channel values, variance the
// population standard deviation over the same values. Alpha is ignored.
func computeColorStats(img image.Image) *models.ColorStats {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return nil
	}

	values := make([]float64, 0, pixels*3)
	var rSum, gSum, bSum float64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rf := float64(r >> 8)
			gf := float64(g >> 8)
			bf := float64(b >> 8)
			rSum += rf
			gSum += gf
			bSum += bf
			values = append(values, rf, gf, bf)
		}
	}

	n := float64(pixels)
	avgR := int(rSum / n)
	avgG := int(gSum / n)
	avgB := int(bSum / n)

	brightness := stat.Mean(values, nil)
	variance := stat.PopStdDev(values, nil)

	hex := colorful.Color{
		R: float64(avgR) / 255.0,
		G: float64(avgG) / 255.0,
		B: float64(avgB) / 255.0,
	}.Hex()

	return &models.ColorStats{
		AvgColorRGB:       [3]int{avgR, avgG, avgB},
		AvgColorHex:       hex,
		Brightness:        brightness,
		BrightnessPercent: brightness / 255.0 * 100.0,
		ColorVariance:     variance,
	}
}
