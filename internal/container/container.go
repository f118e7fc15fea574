package container

import (
	"net/http"

	"go-screenshot-inspector/internal/backend"
	"go-screenshot-inspector/internal/config"
	"go-screenshot-inspector/internal/detection"
	"go-screenshot-inspector/internal/history"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/internal/metadata"
	"go-screenshot-inspector/internal/observer"
	"go-screenshot-inspector/internal/registry"
	"go-screenshot-inspector/internal/render"
	"go-screenshot-inspector/internal/report"
	"go-screenshot-inspector/internal/service"
	"go-screenshot-inspector/internal/storage"
	"go-screenshot-inspector/internal/transport"
	"go-screenshot-inspector/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	registry *registry.Registry
	pipeline service.AnalysisPipeline
	metrics  *observer.MetricsObserver
	runs     *history.Store
	handler  http.Handler
}

// NewContainer builds the dependency graph from configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	// Backend registry with capability probing
	probe := backend.ProbeCapabilities(cfg.VisionEnabled)
	reg := registry.New(probe, registry.Options{
		Headless:       cfg.Headless,
		MockInHeadless: cfg.MockInHeadless,
		ForceLoad:      cfg.ForceLoad,
	})
	reg.Register(backend.NewVisionBackend(cfg.VisionEnabled))
	reg.Register(backend.NewRegionsBackend())
	reg.Register(backend.NewTesseractBackend(cfg.OCRLanguage))

	// Image acquisition: local files always, http and azure when configured
	validator := validation.NewSourceValidator()
	var azureSource storage.ImageSource
	if cfg.AzureAccountName != "" && cfg.AzureAccountKey != "" {
		azure, err := storage.NewAzureSource(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, err
		}
		azureSource = azure
	}
	imageSource := storage.NewCompositeSource(
		validator,
		storage.NewFileSource(),
		storage.NewHTTPSource(cfg.RequestTimeout),
		azureSource,
	)

	// Optional run-history index
	var runs *history.Store
	if cfg.HistoryDBPath != "" {
		store, err := history.New(cfg.HistoryDBPath)
		if err != nil {
			return nil, err
		}
		runs = store
	}

	// Pipeline lifecycle observers
	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	pipeline := service.NewAnalysisPipeline(
		cfg,
		imageSource,
		metadata.NewExtractor(cfg.ExtractColorStats),
		detection.NewMockProvider(),
		detection.NewRealProvider(reg, cfg.DetectionConfidence),
		report.NewBuilder(cfg.OutputDir),
		render.NewRenderer(cfg.OutputDir),
		runs,
		events,
	)

	handler := transport.NewHandler(transport.Deps{
		Pipeline:  pipeline,
		Registry:  reg,
		Validator: validator,
		Metrics:   metrics,
		Runs:      runs,
	}, cfg)

	return &Container{
		config:   cfg,
		registry: reg,
		pipeline: pipeline,
		metrics:  metrics,
		runs:     runs,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Registry returns the model registry
func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// Pipeline returns the analysis pipeline
func (c *Container) Pipeline() service.AnalysisPipeline {
	return c.pipeline
}

// Close releases held resources: loaded backends and the history store.
func (c *Container) Close() {
	c.registry.Close()
	if c.runs != nil {
		if err := c.runs.Close(); err != nil {
			logger.WithError(err).Warn("failed to close history store")
		}
	}
}
