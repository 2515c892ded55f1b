package stempelsdk

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx response decoded into the standard error envelope.
type APIError struct {
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stempelsdk: %d %s: %s", e.Status, e.Code, e.Description)
}

// WriteError writes the standard error envelope to an HTTP response writer.
// Used by server handlers so clients and handlers share one error shape.
func (e *APIError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	ErrInvalidRequest = &APIError{
		Status:      http.StatusBadRequest,
		Code:        "invalid_request",
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidPayload = &APIError{
		Status:      http.StatusBadRequest,
		Code:        "invalid_payload",
		Description: "the scanned payload is not a valid event code",
	}

	ErrUnknownEvent = &APIError{
		Status:      http.StatusNotFound,
		Code:        "unknown_event",
		Description: "no event exists with the given identifier",
	}

	ErrUnauthorized = &APIError{
		Status:      http.StatusUnauthorized,
		Code:        "unauthorized",
		Description: "missing or invalid credentials",
	}

	ErrServerError = &APIError{
		Status:      http.StatusInternalServerError,
		Code:        "server_error",
		Description: "an unexpected error occurred",
	}

	ErrStoreUnavailable = &APIError{
		Status:      http.StatusServiceUnavailable,
		Code:        "store_unavailable",
		Description: "the backing store is temporarily unavailable",
	}
)

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var envelope ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == "" {
		return &APIError{Status: resp.StatusCode, Code: "unexpected_response", Description: string(body)}
	}
	return &APIError{
		Status:      resp.StatusCode,
		Code:        envelope.Error,
		Description: envelope.ErrorDescription,
	}
}
