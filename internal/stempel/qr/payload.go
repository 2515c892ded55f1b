// Package qr encodes and decodes the opaque event reference carried inside
// QR codes. Rendering the code itself is out of scope; this is only the
// payload contract shared with the mobile apps.
package qr

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
)

var ErrInvalidPayload = errors.New("qr: invalid payload")

// Payload is the JSON blob embedded in event QR codes. Field names match what
// deployed scanner apps already produce.
type Payload struct {
	EventID     string `json:"eventId"`
	EventName   string `json:"eventName"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"` // unix milliseconds, when the code was issued
}

// Encode renders the payload string for an event.
func Encode(event domain.Event) (string, error) {
	raw, err := json.Marshal(Payload{
		EventID:     event.ID,
		EventName:   event.Name,
		Description: event.Description,
		Timestamp:   event.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a scanned payload. Anything that is not the expected JSON
// shape with a non-empty event id is ErrInvalidPayload; the caller reports it
// as a rejected scan, distinct from an unknown event.
func Decode(payload string) (Payload, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Payload{}, ErrInvalidPayload
	}

	var p Payload
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&p); err != nil {
		return Payload{}, ErrInvalidPayload
	}
	if strings.TrimSpace(p.EventID) == "" {
		return Payload{}, ErrInvalidPayload
	}
	return p, nil
}
