package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/api/middleware"
)

// statusOf maps engine errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, invoicer.ErrLastItem):
		return http.StatusConflict
	case errors.Is(err, invoicer.ErrSessionLimit):
		return http.StatusTooManyRequests
	case invoicer.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, invoicer.ErrInvalidImage), errors.Is(err, invoicer.ErrIncompleteData):
		return http.StatusUnprocessableEntity
	case invoicer.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, invoicer.ErrEngineStopped),
		errors.Is(err, invoicer.ErrStoreClosed),
		errors.Is(err, invoicer.ErrStoreNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abort writes err as a JSON error body and stops the handler chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusOf(err), gin.H{
		"error":      err.Error(),
		"retryable":  invoicer.IsRetryable(err),
		"request_id": middleware.GetRequestID(c),
	})
}
