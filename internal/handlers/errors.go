package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ponderdome/ponderdome/internal/middleware"
	"github.com/ponderdome/ponderdome/internal/services"
)

// respondError maps service errors onto HTTP statuses. Storage failures are
// reported without their cause.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrUnauthorized):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

func viewer(c *gin.Context) services.Viewer {
	return services.ViewerFromID(middleware.GetUserID(c))
}
