package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/logger"
	"github.com/loglens/loglens/internal/service"
)

// Handler holds HTTP request handlers.
type Handler struct {
	compareService *service.CompareService
	logger         logger.Logger
}

// NewHandler creates a new handler instance.
func NewHandler(compareService *service.CompareService, log logger.Logger) *Handler {
	return &Handler{
		compareService: compareService,
		logger:         log,
	}
}

// Compare handles comparison requests (both GET and POST).
func (h *Handler) Compare(c *gin.Context) {
	var req domain.CompareRequest

	if c.Request.Method == http.MethodGet {
		req = domain.CompareRequest{
			Keywords: c.Query("keywords"),
			From:     c.Query("from"),
			To:       c.Query("to"),
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("Invalid compare request body",
				logger.Error(err),
			)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "Invalid request body: " + err.Error(),
				Code:      "INVALID_REQUEST",
				Timestamp: time.Now(),
			})
			return
		}
	}

	result, err := h.compareService.Compare(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Comparison failed",
			logger.Error(err),
			logger.String("keywords", req.Keywords),
		)

		statusCode := http.StatusInternalServerError
		errorCode := "COMPARE_ERROR"
		if isValidationError(err) {
			statusCode = http.StatusBadRequest
			errorCode = "VALIDATION_ERROR"
		}

		c.JSON(statusCode, ErrorResponse{
			Error:     err.Error(),
			Code:      errorCode,
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// isValidationError reports whether err is an input-validation failure.
// Unparseable dates come back as time.ParseError wrapped under the same
// validation path, so any Compare error that is not backend-related is
// treated as the caller's fault.
func isValidationError(err error) bool {
	return !errors.Is(err, domain.ErrBackendUnavailable) &&
		!errors.Is(err, domain.ErrMalformedResponse)
}

// HealthCheck handles health check requests.
func (h *Handler) HealthCheck(c *gin.Context) {
	status := h.compareService.HealthCheck(c.Request.Context())

	if status.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ReadinessCheck handles readiness check requests.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	h.HealthCheck(c)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}
