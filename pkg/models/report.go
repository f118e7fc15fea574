package models

// BoundingBox is an axis-aligned pixel rectangle locating a detected object.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectedObject is one object found by a detection backend.
// Confidence is always within [0, 1].
type DetectedObject struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// OCRRegion is a recognized text region within the image.
type OCRRegion struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// OCRBlock is the text-recognition section of an analysis.
// MatchScore, WER and CER are only present when an expected text was
// supplied for accuracy scoring.
type OCRBlock struct {
	Detected   bool        `json:"detected"`
	Confidence float64     `json:"confidence,omitempty"`
	Text       string      `json:"text"`
	Regions    []OCRRegion `json:"regions"`

	MatchScore float64 `json:"match_score,omitempty"`
	WER        float64 `json:"word_error_rate,omitempty"`
	CER        float64 `json:"character_error_rate,omitempty"`
}

// Analysis holds the detection-derived portion of a report.
type Analysis struct {
	Objects     []DetectedObject `json:"objects"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	Confidence  float64          `json:"confidence"`
	OCR         OCRBlock         `json:"ocr"`
}

// FileInfo describes the source image file on disk.
type FileInfo struct {
	Filename      string  `json:"filename"`
	Filepath      string  `json:"filepath"`
	FilesizeBytes int64   `json:"filesize_bytes"`
	FilesizeKB    float64 `json:"filesize_kb"`
	FilesizeMB    float64 `json:"filesize_mb"`
	ModifiedAt    string  `json:"modified_at"`
	Extension     string  `json:"extension"`
}

// ColorStats is the numeric color addendum. It is optional: the pipeline
// produces a valid report with this block entirely absent.
type ColorStats struct {
	AvgColorRGB       [3]int  `json:"avg_color_rgb"`
	AvgColorHex       string  `json:"avg_color_hex"`
	Brightness        float64 `json:"brightness"`
	BrightnessPercent float64 `json:"brightness_percent"`
	ColorVariance     float64 `json:"color_variance"`
}

// ColorInfo describes the color mode of the image plus optional statistics.
type ColorInfo struct {
	Mode        string      `json:"mode"`
	HasAlpha    bool        `json:"has_alpha"`
	IsGrayscale bool        `json:"is_grayscale"`
	IsRGB       bool        `json:"is_rgb"`
	Stats       *ColorStats `json:"stats,omitempty"`
}

// ImageInfo describes the decoded image geometry.
type ImageInfo struct {
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Resolution      string    `json:"resolution"`
	AspectRatio     float64   `json:"aspect_ratio"`
	AspectRatioName string    `json:"aspect_ratio_name"`
	Format          string    `json:"format"`
	Orientation     string    `json:"orientation"`
	IsPortrait      bool      `json:"is_portrait"`
	IsLandscape     bool      `json:"is_landscape"`
	ColorInfo       ColorInfo `json:"color_info"`
}

// ImageDetails combines file and image descriptors.
type ImageDetails struct {
	FileInfo  FileInfo  `json:"file_info"`
	ImageInfo ImageInfo `json:"image_info"`
}

// ReportMetadata identifies the producing pipeline run.
type ReportMetadata struct {
	Version   string `json:"version"`
	Mode      string `json:"mode"`
	ImagePath string `json:"image_path"`
}

// ColorAnalysis buckets the raw color metrics for quick inspection.
type ColorAnalysis struct {
	EstimatedBrightness string   `json:"estimated_brightness"`
	DominantColors      []string `json:"dominant_colors"`
	ColorVariance       string   `json:"color_variance"`
}

// DebugInfo records how the analysis was produced.
type DebugInfo struct {
	MockData      bool          `json:"mock_data"`
	ModelUsed     string        `json:"model_used,omitempty"`
	ColorAnalysis ColorAnalysis `json:"color_analysis"`
}

// Performance records how long the analysis took.
type Performance struct {
	Seconds float64 `json:"analysis_time_seconds"`
	MS      float64 `json:"analysis_time_ms"`
}

// AnalysisReport is the complete persisted analysis document. It is created
// once per pipeline run, written to disk immediately and never mutated
// afterwards. Serializing and deserializing a report is loss-free.
type AnalysisReport struct {
	Metadata     ReportMetadata `json:"metadata"`
	ImageDetails ImageDetails   `json:"image_details"`
	Analysis     Analysis       `json:"analysis"`
	DebugInfo    DebugInfo      `json:"debug_info"`
	Performance  Performance    `json:"performance"`
	Timestamp    string         `json:"timestamp"`
}
