package domain

import "time"

// Checkin is a single collected stamp. At most one exists per (UserID, EventID)
// pair; the store enforces that, not callers.
type Checkin struct {
	ID          string
	UserID      string
	EventID     string
	EventName   string // Captured at insert time so history survives event renames
	CollectedAt time.Time
}

// CheckinOutcome is the definitive answer of a record attempt. Re-scanning an
// already collected event is a normal outcome, not an error.
type CheckinOutcome int

const (
	OutcomeRecorded CheckinOutcome = iota
	OutcomeAlreadyCollected
)

func (o CheckinOutcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeAlreadyCollected:
		return "already_collected"
	default:
		return "unknown"
	}
}
