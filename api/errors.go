package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aanooo/erp-system/auth"
	"github.com/aanooo/erp-system/models"
	"github.com/aanooo/erp-system/orders"
)

var errBadRequest = errors.New("bad request")

// respondError writes the status for err. Causes of server faults are
// logged and never sent to the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, orders.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, orders.ErrCustomerNotFound),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, models.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrUserExists):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"error", err, "path", c.FullPath(), "request_id", requestID(c))
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return uint(id), nil
}

// bindJSON decodes the request body into dest.
func bindJSON(c *gin.Context, dest any) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}
