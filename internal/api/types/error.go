package types

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pulsewatch/internal/storage"
)

// Error represents error information in API responses
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// APIError is an error that knows its HTTP status and envelope.
type APIError struct {
	Status   int
	Response Response
	// Cause is logged for 5xx errors and never sent to the client
	Cause error
}

func (e *APIError) Error() string {
	if e.Response.Error == nil {
		return http.StatusText(e.Status)
	}
	return e.Response.Error.Message
}

// AbortWithError writes err as the response envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err *APIError) {
	if err.Status >= http.StatusInternalServerError {
		log.Error().
			Err(err.Cause).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg(err.Error())
	}
	c.AbortWithStatusJSON(err.Status, err.Response)
}

// FromError translates a domain error into an APIError.
//
// Validation faults become 400, missing or foreign entities 404 and
// anything else 500. resource names the entity in not-found details.
func FromError(err error, resource string) *APIError {
	var verr *storage.ValidationError
	switch {
	case errors.As(err, &verr):
		return ValidationError(verr.Error())
	case errors.Is(err, storage.ErrInvalidInput):
		return ValidationError(err.Error())
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrForbidden):
		return NotFoundError(resource)
	default:
		return InternalError("database operation failed", err)
	}
}

// ErrorResponse creates an error API response
func ErrorResponse(code, message, details string) Response {
	return Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// ValidationErrorResponse creates a validation error response
func ValidationErrorResponse(details string) Response {
	return ErrorResponse("VALIDATION_ERROR", "Invalid input data", details)
}

// AuthenticationErrorResponse creates an authentication error response
func AuthenticationErrorResponse(details string) Response {
	return ErrorResponse("AUTHENTICATION_ERROR", "Authentication failed", details)
}

// NotFoundErrorResponse creates a not found error response
func NotFoundErrorResponse(resource string) Response {
	return ErrorResponse("NOT_FOUND", "Resource not found", resource+" not found")
}

// InternalErrorResponse creates an internal server error response
func InternalErrorResponse(details string) Response {
	return ErrorResponse("INTERNAL_ERROR", "Internal server error", details)
}

// ValidationError builds a 400 error.
func ValidationError(details string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Response: ValidationErrorResponse(details)}
}

// AuthenticationError builds a 401 error.
func AuthenticationError(details string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Response: AuthenticationErrorResponse(details)}
}

// NotFoundError builds a 404 error.
func NotFoundError(resource string) *APIError {
	return &APIError{Status: http.StatusNotFound, Response: NotFoundErrorResponse(resource)}
}

// InternalError builds a 500 error. cause is logged, details is returned.
func InternalError(details string, cause error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Response: InternalErrorResponse(details), Cause: cause}
}
