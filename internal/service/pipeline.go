package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go-screenshot-inspector/internal/config"
	"go-screenshot-inspector/internal/detection"
	"go-screenshot-inspector/internal/history"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/internal/metadata"
	"go-screenshot-inspector/internal/observer"
	"go-screenshot-inspector/internal/report"
	"go-screenshot-inspector/internal/render"
	"go-screenshot-inspector/internal/storage"
	"go-screenshot-inspector/pkg/models"
)

// AnalysisPipeline defines the interface for running analysis on an image source
type AnalysisPipeline interface {
	Analyze(ctx context.Context, source string, options AnalyzeOptions) (*AnalyzeResult, error)
}

// AnalyzeOptions carries per-run overrides of the configured behavior.
// Nil pointer fields fall back to the configuration.
type AnalyzeOptions struct {
	Mock           *bool
	GenerateVisual *bool
	ExpectedText   string
}

// AnalyzeResult is one completed pipeline run.
type AnalyzeResult struct {
	Report     *models.AnalysisReport
	ReportPath string
	VisualPath string
}

// analysisPipeline implements AnalysisPipeline
type analysisPipeline struct {
	cfg          *config.Config
	source       storage.ImageSource
	extractor    *metadata.Extractor
	mockProvider detection.Provider
	realProvider detection.Provider
	builder      *report.Builder
	renderer     *render.Renderer
	runs         *history.Store
	events       observer.Subject
}

// NewAnalysisPipeline creates the analysis pipeline. The run history store
// and event publisher are optional; pass nil to disable them.
func NewAnalysisPipeline(
	cfg *config.Config,
	imageSource storage.ImageSource,
	extractor *metadata.Extractor,
	mockProvider detection.Provider,
	realProvider detection.Provider,
	builder *report.Builder,
	renderer *render.Renderer,
	runs *history.Store,
	events observer.Subject,
) AnalysisPipeline {
	return &analysisPipeline{
		cfg:          cfg,
		source:       imageSource,
		extractor:    extractor,
		mockProvider: mockProvider,
		realProvider: realProvider,
		builder:      builder,
		renderer:     renderer,
		runs:         runs,
		events:       events,
	}
}

// Analyze runs the full pipeline on one image source: materialize, extract
// metadata, detect, build and persist the report, then optionally render
// the visual feedback image. Detection failures degrade the report; input
// and persistence failures fail the run.
func (p *analysisPipeline) Analyze(ctx context.Context, source string, options AnalyzeOptions) (*AnalyzeResult, error) {
	start := time.Now()
	p.publish(ctx, observer.PipelineEvent{
		EventType: observer.PipelineStarted,
		Timestamp: start,
		Source:    source,
		Success:   true,
	})

	path, cleanup, err := p.source.Materialize(ctx, source)
	if err != nil {
		p.publishFailure(ctx, source, start, err)
		return nil, err
	}
	defer cleanup()

	details, err := p.extractor.Extract(path)
	if err != nil {
		p.publishFailure(ctx, source, start, err)
		return nil, err
	}

	useMock := p.cfg.IsMock()
	if options.Mock != nil {
		useMock = *options.Mock
	}

	provider := p.realProvider
	if useMock {
		provider = p.mockProvider
	}

	result := provider.Detect(ctx, detection.Input{
		Path:   path,
		Width:  details.ImageInfo.Width,
		Height: details.ImageInfo.Height,
	})
	if result.Err != "" {
		logger.WithField("source", source).Warn("detection degraded: " + result.Err)
	}

	if options.ExpectedText != "" {
		scoreAgainstExpected(&result.OCR, options.ExpectedText)
	}

	rep := p.builder.Build(report.BuildInput{
		ImagePath: details.FileInfo.Filepath,
		Details:   details,
		Detection: result,
		Mock:      useMock,
		Elapsed:   time.Since(start),
	})

	stem := sourceStem(source, path)
	now := time.Now()

	reportPath, err := p.builder.Persist(rep, stem, now)
	if err != nil {
		p.publishFailure(ctx, source, start, err)
		return nil, err
	}
	p.publish(ctx, observer.PipelineEvent{
		EventType: observer.ReportPersisted,
		Timestamp: time.Now(),
		Source:    source,
		Success:   true,
		Metadata:  map[string]interface{}{"report_path": reportPath},
	})

	generateVisual := p.cfg.GenerateVisual
	if options.GenerateVisual != nil {
		generateVisual = *options.GenerateVisual
	}

	visualPath := ""
	if generateVisual {
		// The report is already persisted; a failed drawing pass does not
		// fail the run.
		visualPath, err = p.renderer.Render(path, rep, stem, now)
		if err != nil {
			logger.WithField("source", source).WithError(err).Warn("visual feedback rendering failed")
			visualPath = ""
		} else {
			p.publish(ctx, observer.PipelineEvent{
				EventType: observer.VisualRendered,
				Timestamp: time.Now(),
				Source:    source,
				Success:   true,
				Metadata:  map[string]interface{}{"visual_path": visualPath},
			})
		}
	}

	p.recordRun(source, rep, reportPath, visualPath)

	elapsed := time.Since(start)
	p.publish(ctx, observer.PipelineEvent{
		EventType:      observer.PipelineCompleted,
		Timestamp:      time.Now(),
		Source:         source,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			"object_count": len(rep.Analysis.Objects),
			"mode":         rep.Metadata.Mode,
		},
	})

	return &AnalyzeResult{
		Report:     rep,
		ReportPath: reportPath,
		VisualPath: visualPath,
	}, nil
}

// sourceStem names report and visual artifacts after the original
// reference, so downloaded sources keep the image name instead of the
// random temp filename. The local path is the fallback.
func sourceStem(source, localPath string) string {
	ref := source
	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		ref = ref[:idx]
	}

	base := filepath.Base(ref)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." && stem != string(filepath.Separator) {
		return stem
	}

	base = filepath.Base(localPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// recordRun indexes a completed run. Recording is best-effort.
func (p *analysisPipeline) recordRun(source string, rep *models.AnalysisReport, reportPath, visualPath string) {
	if p.runs == nil {
		return
	}

	_, err := p.runs.InsertRun(&history.Run{
		Source:      source,
		ReportPath:  reportPath,
		VisualPath:  visualPath,
		Mode:        rep.Metadata.Mode,
		ObjectCount: len(rep.Analysis.Objects),
		OCRDetected: rep.Analysis.OCR.Detected,
		Confidence:  rep.Analysis.Confidence,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		logger.WithError(err).Warn("failed to record run history")
	}
}

func (p *analysisPipeline) publish(ctx context.Context, event observer.PipelineEvent) {
	if p.events != nil {
		p.events.NotifyObservers(ctx, event)
	}
}

func (p *analysisPipeline) publishFailure(ctx context.Context, source string, start time.Time, err error) {
	p.publish(ctx, observer.PipelineEvent{
		EventType:      observer.PipelineFailed,
		Timestamp:      time.Now(),
		Source:         source,
		ProcessingTime: time.Since(start),
		Success:        false,
		ErrorMessage:   err.Error(),
	})
}
