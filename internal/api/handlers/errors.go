package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sincov/airmon-go/internal/database"
	"github.com/sincov/airmon-go/internal/services"
)

// statusFromError maps service errors to HTTP status codes. Internal
// algorithmic errors never leak: anything unmapped becomes a plain 500.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, services.ErrStationNotFound) || errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrStationInactive):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPredictionUnavailable) || errors.Is(err, services.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFromError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Hide internals from callers.
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}
