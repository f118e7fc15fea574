package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-screenshot-inspector/internal/backend"
	"go-screenshot-inspector/internal/config"
	"go-screenshot-inspector/internal/history"
	"go-screenshot-inspector/internal/registry"
	"go-screenshot-inspector/internal/service"
	"go-screenshot-inspector/pkg/models"
	"go-screenshot-inspector/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubPipeline returns a canned result or error.
type stubPipeline struct {
	result *service.AnalyzeResult
	err    error

	lastSource  string
	lastOptions service.AnalyzeOptions
}

func (s *stubPipeline) Analyze(ctx context.Context, source string, options service.AnalyzeOptions) (*service.AnalyzeResult, error) {
	s.lastSource = source
	s.lastOptions = options
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxRequestBodySize: 1 << 20,
		RequestTimeout:     5 * time.Second,
		AnalysisTimeout:    5 * time.Second,
	}
}

func headlessRegistry() *registry.Registry {
	reg := registry.New(backend.ProbeCapabilities(false), registry.Options{
		Headless:       true,
		MockInHeadless: true,
	})
	reg.Register(backend.NewRegionsBackend())
	return reg
}

func newTestHandler(pipeline service.AnalysisPipeline) http.Handler {
	return NewHandler(Deps{
		Pipeline:  pipeline,
		Registry:  headlessRegistry(),
		Validator: validation.NewSourceValidator(),
	}, testConfig())
}

func TestAnalyzeEndpoint_Success(t *testing.T) {
	stub := &stubPipeline{
		result: &service.AnalyzeResult{
			Report: &models.AnalysisReport{
				Metadata: models.ReportMetadata{Mode: "mock_analysis"},
			},
			ReportPath: "/out/analysis.json",
		},
	}
	handler := newTestHandler(stub)

	body, _ := json.Marshal(models.AnalyzeRequest{Source: "capture.png", ExpectedText: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.ReportPath != "/out/analysis.json" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if stub.lastSource != "capture.png" || stub.lastOptions.ExpectedText != "hello" {
		t.Errorf("Pipeline received wrong arguments: source=%q options=%+v", stub.lastSource, stub.lastOptions)
	}
}

func TestAnalyzeEndpoint_MissingSource(t *testing.T) {
	handler := newTestHandler(&stubPipeline{})

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing source, got %d", rec.Code)
	}
}

func TestAnalyzeEndpoint_InvalidExtension(t *testing.T) {
	handler := newTestHandler(&stubPipeline{})

	body, _ := json.Marshal(models.AnalyzeRequest{Source: "notes.txt"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported extension, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(&stubPipeline{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "available" {
		t.Errorf("Unexpected health body: %v", body)
	}
}

func TestModelStatusEndpoint(t *testing.T) {
	handler := newTestHandler(&stubPipeline{})

	req := httptest.NewRequest(http.MethodGet, "/models/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Models map[string]registry.ModelStatus `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, ok := body.Models[backend.NameRegions]; !ok {
		t.Errorf("Expected regions backend in status map, got %v", body.Models)
	}
}

func TestLoadModelsEndpoint_HeadlessSkips(t *testing.T) {
	handler := newTestHandler(&stubPipeline{})

	body, _ := json.Marshal(models.LoadModelsRequest{Models: []string{backend.NameRegions}})
	req := httptest.NewRequest(http.MethodPost, "/models/load", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Models map[string]registry.ModelStatus `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	status := resp.Models[backend.NameRegions]
	if !status.Loaded || !status.Skipped {
		t.Errorf("Expected a skipped headless load, got %+v", status)
	}
}

func TestLoadModelsEndpoint_ForceLoadsForReal(t *testing.T) {
	handler := newTestHandler(&stubPipeline{})

	body, _ := json.Marshal(models.LoadModelsRequest{Models: []string{backend.NameRegions}, Force: true})
	req := httptest.NewRequest(http.MethodPost, "/models/load", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Models map[string]registry.ModelStatus `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	status := resp.Models[backend.NameRegions]
	if !status.Loaded || status.Skipped {
		t.Errorf("Expected a real load despite headless mode, got %+v", status)
	}
}

func TestRunsEndpoint_ReturnsRunsAndStats(t *testing.T) {
	store, err := history.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}
	defer store.Close()

	if _, err := store.InsertRun(&history.Run{
		Source:     "capture.png",
		ReportPath: "/out/analysis.json",
		Mode:       "mock_analysis",
		CreatedAt:  time.Now(),
	}); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	handler := NewHandler(Deps{
		Pipeline:  &stubPipeline{},
		Registry:  headlessRegistry(),
		Validator: validation.NewSourceValidator(),
		Runs:      store,
	}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count int                    `json:"count"`
		Stats map[string]interface{} `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("Expected 1 run, got %d", body.Count)
	}
	if total, ok := body.Stats["total_runs"].(float64); !ok || total != 1 {
		t.Errorf("Expected stats.total_runs 1, got %v", body.Stats["total_runs"])
	}
}

func TestRunsEndpoint_Disabled(t *testing.T) {
	handler := newTestHandler(&stubPipeline{})

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when history is disabled, got %d", rec.Code)
	}
}
