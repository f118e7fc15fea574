package models

// AnalyzeRequest is the HTTP request body for a single analysis run.
// Source accepts a local file path, an http(s) URL or an azure:// reference.
type AnalyzeRequest struct {
	Source         string `json:"source" binding:"required"`
	Mock           *bool  `json:"mock,omitempty"`
	GenerateVisual *bool  `json:"generate_visual,omitempty"`
	ExpectedText   string `json:"expected_text,omitempty"`
}

// AnalyzeResponse wraps a pipeline outcome for transport.
type AnalyzeResponse struct {
	Success    bool            `json:"success"`
	Report     *AnalysisReport `json:"report,omitempty"`
	ReportPath string          `json:"report_path,omitempty"`
	VisualPath string          `json:"visual_path,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// LoadModelsRequest asks the registry to load specific backends.
// An empty Models list means all backends in their fixed order.
type LoadModelsRequest struct {
	Models []string `json:"models,omitempty"`
	Force  bool     `json:"force,omitempty"`
}
