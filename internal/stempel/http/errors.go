package http

import (
	"errors"
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/qr"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// writeServiceError maps service-layer sentinel errors onto the standard
// error envelope. Anything unrecognised becomes a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDeviceID):
		apiError(http.StatusBadRequest, "invalid_device_id", "device_id is missing or malformed").WriteError(w)
	case errors.Is(err, service.ErrInvalidName):
		apiError(http.StatusBadRequest, "invalid_name", "display name is empty or too long").WriteError(w)
	case errors.Is(err, service.ErrInvalidEvent):
		apiError(http.StatusBadRequest, "invalid_event", "event fields are missing or malformed").WriteError(w)
	case errors.Is(err, qr.ErrInvalidPayload):
		stempelsdk.ErrInvalidPayload.WriteError(w)
	case errors.Is(err, service.ErrUnknownEvent):
		stempelsdk.ErrUnknownEvent.WriteError(w)
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidToken):
		stempelsdk.ErrUnauthorized.WriteError(w)
	case errors.Is(err, service.ErrStoreUnavailable):
		stempelsdk.ErrStoreUnavailable.WriteError(w)
	default:
		stempelsdk.ErrServerError.WriteError(w)
	}
}

func apiError(status int, code, description string) *stempelsdk.APIError {
	return &stempelsdk.APIError{Status: status, Code: code, Description: description}
}
