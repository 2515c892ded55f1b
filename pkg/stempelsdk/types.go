package stempelsdk

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the standard error envelope for every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ScanRequest carries a raw QR payload straight from the scanner.
type ScanRequest struct {
	DeviceID string `json:"device_id"`
	Payload  string `json:"payload"`
}

// CheckinRequest is the pre-decoded form of a scan.
type CheckinRequest struct {
	DeviceID  string `json:"device_id"`
	EventID   string `json:"event_id"`
	EventName string `json:"event_name,omitempty"`
}

// CheckinResponse reports the definitive outcome of a scan:
// "recorded" or "already_collected".
type CheckinResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	EventName string `json:"event_name"`
}

type Stamp struct {
	EventID     string    `json:"event_id"`
	EventName   string    `json:"event_name"`
	CollectedAt time.Time `json:"collected_at"`
}

type StampsResponse struct {
	Stamps []Stamp `json:"stamps"`
}

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type EventsResponse struct {
	Events []Event `json:"events"`
}

type Profile struct {
	UserID      string `json:"user_id"`
	DeviceID    string `json:"device_id"`
	DisplayName string `json:"display_name"`
}

type UpdateProfileRequest struct {
	DeviceID    string `json:"device_id"`
	DisplayName string `json:"display_name"`
}

type AdminLoginRequest struct {
	Secret string `json:"secret"`
}

type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SetEventActiveRequest struct {
	Active bool `json:"active"`
}

type QRPayloadResponse struct {
	Payload string `json:"payload"`
}

// LeaderboardEntry mirrors the server's aggregate view row.
type LeaderboardEntry struct {
	UserID        string     `json:"user_id"`
	DeviceID      string     `json:"device_id"`
	DisplayName   string     `json:"display_name"`
	CheckinCount  int        `json:"checkin_count"`
	LastCheckinAt *time.Time `json:"last_checkin_at,omitempty"`
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LiveRequest is the inbound live-connection message:
// action is "subscribe" or "unsubscribe".
type LiveRequest struct {
	Action string `json:"action"`
	Table  string `json:"table"`
}

// LiveMessage is the outbound live-connection message: type is "snapshot",
// "subscribed" or "error". Snapshot payloads decode into []LeaderboardEntry.
type LiveMessage struct {
	Type    string          `json:"type"`
	Table   string          `json:"table,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}
