package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-screenshot-inspector/internal/config"
	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/history"
	"go-screenshot-inspector/internal/logger"
	"go-screenshot-inspector/internal/observer"
	"go-screenshot-inspector/internal/registry"
	"go-screenshot-inspector/internal/service"
	"go-screenshot-inspector/pkg/models"
	"go-screenshot-inspector/pkg/validation"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Deps bundles everything the HTTP surface needs. Metrics and Runs are
// optional; their endpoints degrade gracefully when absent.
type Deps struct {
	Pipeline  service.AnalysisPipeline
	Registry  *registry.Registry
	Validator *validation.SourceValidator
	Metrics   *observer.MetricsObserver
	Runs      *history.Store
}

func NewHandler(deps Deps, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(deps.Metrics))
	r.POST("/analyze", analyzeImage(deps, cfg))
	r.GET("/models/status", modelStatus(deps.Registry))
	r.POST("/models/load", loadModels(deps.Registry))
	r.GET("/runs", recentRuns(deps.Runs))

	return r
}

func analyzeImage(deps Deps, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing analysis request")

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := deps.Validator.ValidateSource(req.Source); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"source": req.Source,
				"ip":     c.ClientIP(),
			}).Error("Invalid image source")
			respondError(c, apperrors.GetStatusCode(err), "invalid image source", err)
			return
		}

		result, err := deps.Pipeline.Analyze(ctx, req.Source, service.AnalyzeOptions{
			Mock:           req.Mock,
			GenerateVisual: req.GenerateVisual,
			ExpectedText:   req.ExpectedText,
		})
		if err != nil {
			statusCode := determineStatusCode(err)
			logger.WithError(err).WithFields(logrus.Fields{
				"source": req.Source,
				"ip":     c.ClientIP(),
			}).Error("Analysis failed")
			respondError(c, statusCode, "analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"source":             req.Source,
			"mode":               result.Report.Metadata.Mode,
			"object_count":       len(result.Report.Analysis.Objects),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Analysis completed successfully")

		c.JSON(http.StatusOK, models.AnalyzeResponse{
			Success:    true,
			Report:     result.Report,
			ReportPath: result.ReportPath,
			VisualPath: result.VisualPath,
		})
	}
}

func modelStatus(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"models": reg.Status(),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func loadModels(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoadModelsRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "invalid request format", err)
				return
			}
		}

		loadAll := reg.LoadAll
		if req.Force {
			loadAll = reg.LoadAllForced
		}
		err := loadAll(c.Request.Context(), req.Models...)
		status := reg.Status()
		if err != nil {
			// Partial failure: the status map carries the per-model detail
			c.JSON(apperrors.GetStatusCode(err), gin.H{
				"models": status,
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"models": status})
	}
}

func recentRuns(runs *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if runs == nil {
			respondError(c, http.StatusNotFound, "run history is not enabled", nil)
			return
		}

		limit := 50
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				respondError(c, http.StatusBadRequest, "invalid limit", err)
				return
			}
			limit = parsed
		}

		records, err := runs.RecentRuns(limit)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to read run history", err)
			return
		}
		stats, err := runs.Stats()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to read run history", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": records, "count": len(records), "stats": stats})
	}
}

func healthCheck(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "available",
			"version": "1.0.0",
			"time":    time.Now().UTC().Format(time.RFC3339),
		}
		if metrics != nil {
			body["metrics"] = metrics.GetMetrics()
		}
		c.JSON(http.StatusOK, body)
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	detail := message
	if err != nil {
		detail = fmt.Sprintf("%s: %v", message, err)
	}
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: detail,
	})
}
