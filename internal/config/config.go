package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode selects which detection provider the pipeline uses.
const (
	ModeMock = "mock"
	ModeReal = "real"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Pipeline behavior
	OutputDir         string
	Mode              string
	GenerateVisual    bool
	ExtractColorStats bool

	// Model loading policy
	Headless       bool
	MockInHeadless bool
	ForceLoad      bool

	// Backend settings
	DetectionConfidence float64
	OCRLanguage         string
	VisionEnabled       bool

	// Optional run-history index; empty disables it
	HistoryDBPath string

	// Azure source credentials (optional)
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// IsMock reports whether the pipeline runs against the mock provider.
func (c *Config) IsMock() bool {
	return c.Mode == ModeMock
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1*1024*1024), // 1MB

		OutputDir:         getEnvOrDefault("OUTPUT_DIR", "analysis_results"),
		Mode:              getEnvOrDefault("ANALYSIS_MODE", ModeMock),
		GenerateVisual:    parseBoolOrDefault("GENERATE_VISUAL", true),
		ExtractColorStats: parseBoolOrDefault("EXTRACT_COLOR_STATS", true),

		Headless:       parseBoolOrDefault("HEADLESS", false),
		MockInHeadless: parseBoolOrDefault("MOCK_IN_HEADLESS", true),
		ForceLoad:      parseBoolOrDefault("FORCE_LOAD", false),

		DetectionConfidence: parseFloatOrDefault("DETECTION_CONFIDENCE", 0.25),
		OCRLanguage:         getEnvOrDefault("OCR_LANGUAGE", "eng"),
		VisionEnabled:       parseBoolOrDefault("VISION_ENABLED", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""),

		HistoryDBPath: os.Getenv("HISTORY_DB"),

		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.Mode != ModeMock && cfg.Mode != ModeReal {
		return nil, fmt.Errorf("invalid ANALYSIS_MODE: %q (must be %q or %q)", cfg.Mode, ModeMock, ModeReal)
	}
	if cfg.DetectionConfidence < 0 || cfg.DetectionConfidence > 1 {
		return nil, fmt.Errorf("DETECTION_CONFIDENCE must be within [0,1] (got %g)", cfg.DetectionConfidence)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.AnalysisTimeout)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
