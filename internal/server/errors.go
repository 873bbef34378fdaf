package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	analyticsdomain "github.com/partnerpulse/creditscope/internal/analytics/domain"
	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
	"github.com/partnerpulse/creditscope/pkg/db"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ValidationError marks a request parameter problem so the error middleware
// maps it to a 400 with the offending field named.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// AbortWithError attaches err to the gin context and stops the handler chain.
// The actual response is written by ErrorHandlingMiddleware.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandlingMiddleware turns errors collected on the context into a
// consistent JSON error body. The last error wins.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, payload := mapError(err)
		c.JSON(status, errorResponse{Error: payload})
	}
}

func mapError(err error) (int, errorPayload) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    verr.Field,
			Message: verr.Message,
		}
	}

	switch {
	case errors.Is(err, analyticsdomain.ErrInsufficientData):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "insufficient_data",
			Message: "not enough data to derive the requested metric",
		}
	case errors.Is(err, analyticsdomain.ErrInvalidWindow):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    "window_days",
			Message: "window_days must be one of 3, 7, 14, or 30",
		}
	case errors.Is(err, analyticsdomain.ErrInvalidDateRange),
		errors.Is(err, warehousedomain.ErrInvalidDateRange):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    "date_range",
			Message: "end date must not precede start date",
		}
	case errors.Is(err, analyticsdomain.ErrMalformedInput):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    "input",
			Message: err.Error(),
		}
	case db.IsNotFoundErr(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "resource not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "an unexpected error occurred",
		}
	}
}

// classifyErrorForLog reports a coarse error type and code for access logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, payload.Code
}
