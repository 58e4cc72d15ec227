package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// report serves the result of load as JSON.
func report[T any](load func(context.Context) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := load(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
