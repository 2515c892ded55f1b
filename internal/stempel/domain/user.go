package domain

import "time"

type User struct {
	ID          string
	DeviceID    string // Stable per installation, unique
	DisplayName string // Mutable by the user, defaulted on creation
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserAggregate is the live leaderboard row: per-user check-in count and the
// time of the most recent check-in. It is computed from the checkins table on
// demand and never stored.
type UserAggregate struct {
	UserID        string     `json:"user_id"`
	DeviceID      string     `json:"device_id"`
	DisplayName   string     `json:"display_name"`
	CheckinCount  int        `json:"checkin_count"`
	LastCheckinAt *time.Time `json:"last_checkin_at,omitempty"`
}
