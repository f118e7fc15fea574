package backend

import (
	"context"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/pkg/models"
)

// RegionsBackend is a local object detector that finds visually busy regions
// through edge density. It needs no external services or native libraries,
// so it is always available as the fallback detector.
type RegionsBackend struct {
	cellSize       int
	edgeThreshold  uint8
	minCellDensity float64
	ready          bool
}

func NewRegionsBackend() *RegionsBackend {
	return &RegionsBackend{
		cellSize:       16,
		edgeThreshold:  128,
		minCellDensity: 0.08,
	}
}

func (b *RegionsBackend) Name() string { return NameRegions }

func (b *RegionsBackend) Init(ctx context.Context) error {
	b.ready = true
	return nil
}

// SelfTest runs the edge pass over a tiny synthetic image.
func (b *RegionsBackend) SelfTest(ctx context.Context) error {
	if !b.ready {
		return apperrors.NewBackendLoadError("regions backend not initialized", nil)
	}
	probe := image.NewRGBA(image.Rect(0, 0, 8, 8))
	edges := effect.Sobel(probe)
	if edges == nil {
		return apperrors.NewBackendLoadError("regions backend edge pass failed", nil)
	}
	return nil
}

func (b *RegionsBackend) Close() error {
	b.ready = false
	return nil
}

// DetectObjects finds connected clusters of edge-dense grid cells and
// reports each cluster as a "region" object. Confidence reflects the mean
// edge density of the cluster, capped at 0.99.
func (b *RegionsBackend) DetectObjects(ctx context.Context, imagePath string) ([]models.DetectedObject, error) {
	if !b.ready {
		return nil, apperrors.NewBackendLoadError("regions backend not loaded", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to open image: %s", imagePath), err)
	}

	edges := effect.Sobel(img)
	mask := segment.Threshold(edges, b.edgeThreshold)

	return b.clusterEdgeCells(mask), nil
}

// clusterEdgeCells walks a coarse grid over the edge mask, marks cells whose
// white-pixel density passes the threshold and merges 4-connected marked
// cells into bounding boxes.
func (b *RegionsBackend) clusterEdgeCells(mask *image.Gray) []models.DetectedObject {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	cols := (width + b.cellSize - 1) / b.cellSize
	rows := (height + b.cellSize - 1) / b.cellSize
	if cols == 0 || rows == 0 {
		return nil
	}

	density := make([][]float64, rows)
	for cy := 0; cy < rows; cy++ {
		density[cy] = make([]float64, cols)
		for cx := 0; cx < cols; cx++ {
			density[cy][cx] = b.cellDensity(mask, cx, cy, width, height)
		}
	}

	visited := make([][]bool, rows)
	for i := range visited {
		visited[i] = make([]bool, cols)
	}

	var objects []models.DetectedObject
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			if visited[cy][cx] || density[cy][cx] < b.minCellDensity {
				continue
			}
			obj := b.growCluster(density, visited, cx, cy, cols, rows, width, height)
			objects = append(objects, obj)
		}
	}
	return objects
}

func (b *RegionsBackend) cellDensity(mask *image.Gray, cx, cy, width, height int) float64 {
	x0 := cx * b.cellSize
	y0 := cy * b.cellSize
	x1 := min(x0+b.cellSize, width)
	y1 := min(y0+b.cellSize, height)

	total := (x1 - x0) * (y1 - y0)
	if total == 0 {
		return 0
	}

	lit := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if mask.GrayAt(x+mask.Bounds().Min.X, y+mask.Bounds().Min.Y).Y > 0 {
				lit++
			}
		}
	}
	return float64(lit) / float64(total)
}

// growCluster BFS-expands from a seed cell and returns the cluster bounding
// box in pixel coordinates.
func (b *RegionsBackend) growCluster(density [][]float64, visited [][]bool, seedX, seedY, cols, rows, width, height int) models.DetectedObject {
	type cell struct{ x, y int }
	queue := []cell{{seedX, seedY}}
	visited[seedY][seedX] = true

	minCX, minCY := seedX, seedY
	maxCX, maxCY := seedX, seedY
	var densitySum float64
	count := 0

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		densitySum += density[c.y][c.x]
		count++

		if c.x < minCX {
			minCX = c.x
		}
		if c.x > maxCX {
			maxCX = c.x
		}
		if c.y < minCY {
			minCY = c.y
		}
		if c.y > maxCY {
			maxCY = c.y
		}

		neighbors := []cell{{c.x - 1, c.y}, {c.x + 1, c.y}, {c.x, c.y - 1}, {c.x, c.y + 1}}
		for _, n := range neighbors {
			if n.x < 0 || n.x >= cols || n.y < 0 || n.y >= rows {
				continue
			}
			if visited[n.y][n.x] || density[n.y][n.x] < b.minCellDensity {
				continue
			}
			visited[n.y][n.x] = true
			queue = append(queue, n)
		}
	}

	confidence := densitySum / float64(count)
	if confidence > 0.99 {
		confidence = 0.99
	}

	x := minCX * b.cellSize
	y := minCY * b.cellSize
	w := min((maxCX+1)*b.cellSize, width) - x
	h := min((maxCY+1)*b.cellSize, height) - y

	return models.DetectedObject{
		Label:      "region",
		Confidence: confidence,
		BBox:       models.BoundingBox{X: x, Y: y, Width: w, Height: h},
	}
}
