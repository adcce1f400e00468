package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"freight/internal/repository"
	"freight/internal/service"
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
	case errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidCargo),
		errors.Is(err, service.ErrInvalidBookingKind),
		errors.Is(err, service.ErrInvalidPickupTime),
		errors.Is(err, service.ErrInvalidDiscountRate):
		return http.StatusBadRequest

	// State machine misuse and lost races
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrBackloadNotOpen),
		errors.Is(err, service.ErrAggregationInProgress):
		return http.StatusConflict

	// Policy violations
	case errors.Is(err, service.ErrCancellationNotAllowed),
		errors.Is(err, service.ErrReassignNotAllowed),
		errors.Is(err, service.ErrPickupWindowBlocked):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
