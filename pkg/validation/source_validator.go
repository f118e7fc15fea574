package validation

import (
	"net/url"
	"path/filepath"
	"strings"

	apperrors "go-screenshot-inspector/internal/errors"
)

// SourceKind classifies where an image reference points to.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindHTTP  SourceKind = "http"
	SourceKindAzure SourceKind = "azure"
)

// SourceValidator validates image source references before the pipeline
// attempts to materialize them.
type SourceValidator struct {
	allowedSchemes    []string
	allowedExtensions []string
}

// NewSourceValidator creates a source validator with default settings
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes:    []string{"http", "https", "azure"},
		allowedExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"},
	}
}

// NewSourceValidatorWithOptions creates a source validator with custom options
func NewSourceValidatorWithOptions(schemes []string, extensions []string) *SourceValidator {
	return &SourceValidator{
		allowedSchemes:    schemes,
		allowedExtensions: extensions,
	}
}

// Classify determines what kind of reference the source string is.
// Anything without a recognized scheme is treated as a local file path.
func (v *SourceValidator) Classify(source string) SourceKind {
	lower := strings.ToLower(strings.TrimSpace(source))
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceKindHTTP
	case strings.HasPrefix(lower, "azure://"):
		return SourceKindAzure
	default:
		return SourceKindFile
	}
}

// ValidateSource validates if the provided reference is acceptable for
// image processing.
func (v *SourceValidator) ValidateSource(source string) error {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return apperrors.NewValidationError("source cannot be empty", nil)
	}

	switch v.Classify(trimmed) {
	case SourceKindHTTP, SourceKindAzure:
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return apperrors.NewValidationError("invalid source URL format", err)
		}
		if !v.isSchemeAllowed(parsed.Scheme) {
			return apperrors.NewValidationError("source scheme not allowed", nil)
		}
		if parsed.Host == "" {
			return apperrors.NewValidationError("source URL must have a host", nil)
		}
		return nil
	default:
		if !v.isExtensionAllowed(filepath.Ext(trimmed)) {
			return apperrors.NewValidationError("unsupported image extension", nil)
		}
		return nil
	}
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *SourceValidator) isSchemeAllowed(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isExtensionAllowed checks the file extension against the allowed list.
// Returns true when no extension restrictions are set.
func (v *SourceValidator) isExtensionAllowed(ext string) bool {
	if len(v.allowedExtensions) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, allowed := range v.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
