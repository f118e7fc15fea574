package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"go-screenshot-inspector/internal/config"
	"go-screenshot-inspector/internal/container"
	"go-screenshot-inspector/internal/service"
)

func main() {
	imagePath := flag.String("image", "", "analyze a single image (file path, http(s) URL or azure:// ref)")
	dirPath := flag.String("dir", "", "analyze every PNG in a directory")
	outputDir := flag.String("output", "", "override the output directory")
	expectedText := flag.String("expected", "", "expected text for OCR accuracy scoring")
	mock := flag.Bool("mock", false, "force the mock provider")
	headless := flag.Bool("headless", false, "run in headless mode")
	noVisual := flag.Bool("no-visual", false, "skip the visual feedback image")
	workers := flag.Int("workers", 4, "worker count for batch mode")
	flag.Parse()

	if (*imagePath == "") == (*dirPath == "") {
		fmt.Fprintln(os.Stderr, "Usage: analyze -image <source> | -dir <directory> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Load .env if present; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *mock {
		cfg.Mode = config.ModeMock
	}
	if *headless {
		cfg.Headless = true
	}
	if *noVisual {
		cfg.GenerateVisual = false
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	options := service.AnalyzeOptions{ExpectedText: *expectedText}

	if *imagePath != "" {
		result, err := c.Pipeline().Analyze(ctx, *imagePath, options)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		printResult(*imagePath, result)
		return
	}

	failed := analyzeDirectory(ctx, c.Pipeline(), *dirPath, options, *workers)
	if failed > 0 {
		os.Exit(1)
	}
}

// analyzeDirectory fans every PNG in dir over the worker pool and returns
// the number of failed runs.
func analyzeDirectory(ctx context.Context, pipeline service.AnalysisPipeline, dir string, options service.AnalyzeOptions, workers int) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("Failed to read directory: %v", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	if len(images) == 0 {
		logrus.WithField("dir", dir).Warn("No PNG files found")
		return 0
	}

	pool := service.NewWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	var failures int64
	for _, image := range images {
		image := image
		pool.Submit(func() {
			result, err := pipeline.Analyze(ctx, image, options)
			if err != nil {
				atomic.AddInt64(&failures, 1)
				logrus.WithError(err).WithField("image", image).Error("Analysis failed")
				return
			}
			printResult(image, result)
		})
	}
	pool.Wait()

	logrus.WithFields(logrus.Fields{
		"total":  len(images),
		"failed": failures,
	}).Info("Batch analysis finished")
	return int(atomic.LoadInt64(&failures))
}

func printResult(source string, result *service.AnalyzeResult) {
	fmt.Printf("%s: %s\n", source, result.Report.Analysis.Description)
	fmt.Printf("  report: %s\n", result.ReportPath)
	if result.VisualPath != "" {
		fmt.Printf("  visual: %s\n", result.VisualPath)
	}
}
