package httpapi

import (
	"errors"
	"net/http"

	"inventory-platform/internal/audit"
	"inventory-platform/internal/inventory"
	"inventory-platform/internal/projects"
	"inventory-platform/internal/trash"
	"inventory-platform/internal/users"
	"inventory-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// All responses share one envelope shape:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": "..."}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// respondServiceError maps the domain error taxonomy onto HTTP statuses.
// Unclassified errors become an opaque 500; the real cause goes to the log,
// never the response body.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, audit.ErrInvalidArgument),
		errors.Is(err, trash.ErrInvalidArgument),
		errors.Is(err, inventory.ErrInvalidArgument),
		errors.Is(err, projects.ErrInvalidArgument),
		errors.Is(err, users.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, trash.ErrAlreadyRecovered):
		respondError(c, http.StatusBadRequest, "item already recovered")
	case errors.Is(err, trash.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, projects.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		respondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, trash.ErrConflict),
		errors.Is(err, inventory.ErrConflict),
		errors.Is(err, users.ErrConflict):
		respondError(c, http.StatusConflict, "conflict with existing record")
	case errors.Is(err, trash.ErrForbidden):
		respondError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, users.ErrBadCredentials):
		respondError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, inventory.ErrImportBusy):
		respondError(c, http.StatusConflict, "an import is already running for this workspace")
	default:
		logger.FromGin(c).Error("request failed", "error", err)
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
