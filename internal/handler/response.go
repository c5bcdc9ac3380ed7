package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shiptrack/internal/domain"
	"shiptrack/internal/planner"
	"shiptrack/internal/repository"
	"shiptrack/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidOrderNo),
		errors.Is(err, service.ErrInvalidOrigin),
		errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, domain.ErrUnknownCarrier),
		errors.Is(err, planner.ErrNoOrders),
		errors.Is(err, planner.ErrMixedOrigins),
		errors.Is(err, planner.ErrInvalidCoordinates):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrOrderNotShippable),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrOrderLocked):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
