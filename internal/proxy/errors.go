package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorKind classifies why a chat request could not be streamed.
type ErrorKind string

const (
	InvalidRequest      ErrorKind = "invalid_request"
	UpstreamHTTPError   ErrorKind = "upstream_http_error"
	UpstreamUnavailable ErrorKind = "upstream_unavailable"
	InternalError       ErrorKind = "internal_error"
)

const (
	missingMessageText = "Missing 'message' in request body"
	internalErrorText  = "Internal server error"
)

// RelayError is returned for every failure detected before streaming starts.
// Message is what the caller sees; Err is only logged.
type RelayError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

func errInvalidRequest() *RelayError {
	return &RelayError{Kind: InvalidRequest, Status: http.StatusBadRequest, Message: missingMessageText}
}

func errRequestTooLarge(limit int64) *RelayError {
	return &RelayError{
		Kind:    InvalidRequest,
		Status:  http.StatusRequestEntityTooLarge,
		Message: fmt.Sprintf("Request body larger than %d bytes", limit),
	}
}

func errUpstreamHTTP(status int, message string) *RelayError {
	return &RelayError{Kind: UpstreamHTTPError, Status: status, Message: message}
}

func errUpstreamUnavailable(err error) *RelayError {
	return &RelayError{Kind: UpstreamUnavailable, Status: http.StatusServiceUnavailable, Message: err.Error(), Err: err}
}

// errInternal hides err from the caller.
func errInternal(err error) *RelayError {
	return &RelayError{Kind: InternalError, Status: http.StatusInternalServerError, Message: internalErrorText, Err: err}
}

// writeError sends {"error": message} with the error's status.
func writeError(w http.ResponseWriter, e *RelayError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]string{"error": e.Message})
}
