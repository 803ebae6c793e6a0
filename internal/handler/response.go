package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"storefront/catalog/internal/domain"
)

type ApiResponse struct {
	Message         string `json:"message"`
	Data            any    `json:"data,omitempty"`
	Error           bool   `json:"error,omitempty"`
	RequestedEntity string `json:"requested_entity,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data any) ApiResponse {
	return ApiResponse{
		Message:         message,
		Data:            data,
		RequestedEntity: c.Request.Method + " " + c.FullPath(),
	}
}

func ErrorResponse(c *gin.Context, message string) ApiResponse {
	return ApiResponse{
		Message:         message,
		Error:           true,
		RequestedEntity: c.Request.Method + " " + c.FullPath(),
	}
}

// respondError maps domain errors to HTTP statuses. Anything unrecognised is a 500 with the detail logged only.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidParent):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		status, message = http.StatusForbidden, "Forbidden"
	default:
		log.Errorf("❌ %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.AbortWithStatusJSON(status, ErrorResponse(c, message))
}
