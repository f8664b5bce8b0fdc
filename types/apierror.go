package types

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a rejection that crosses service boundaries as data. The same
// status code and message a service produces locally is what the gateway
// ultimately writes to the client, no matter how many hops it travelled.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message)
}

func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, message)
}

func NotFound(message string) *APIError {
	return NewAPIError(http.StatusNotFound, message)
}

func Conflict(message string) *APIError {
	return NewAPIError(http.StatusConflict, message)
}

// Unavailable marks transport-level failures: the remote service could not
// be reached or did not answer within the call deadline. Distinct from any
// rejection the remote operation itself produced.
func Unavailable(message string) *APIError {
	return NewAPIError(http.StatusServiceUnavailable, message)
}

func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message)
}

// AsAPIError unwraps err into an *APIError if one is in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
