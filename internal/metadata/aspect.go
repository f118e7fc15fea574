package metadata

import (
	"fmt"
	"math"
)

// aspectRatioNames is ordered; the first entry within tolerance wins.
var aspectRatioNames = []struct {
	ratio float64
	name  string
}{
	{1.33, "4:3 (standard)"},
	{1.78, "16:9 (wide)"},
	{1.6, "16:10"},
	{1.85, "1.85:1 (cinema)"},
	{2.35, "2.35:1 (cinemascope)"},
	{1.0, "1:1 (square)"},
	{0.75, "3:4 (portrait standard)"},
	{0.56, "9:16 (portrait wide)"},
}

const aspectRatioTolerance = 0.03

// AspectRatioName maps a width/height ratio to a canonical display name.
// Ratios that match no canonical entry fall back to a "<ratio>:1" format.
func AspectRatioName(ratio float64) string {
	rounded := math.Round(ratio*100) / 100

	for _, entry := range aspectRatioNames {
		if math.Abs(rounded-entry.ratio) <= aspectRatioTolerance {
			return entry.name
		}
	}
	return fmt.Sprintf("%.2f:1", rounded)
}
