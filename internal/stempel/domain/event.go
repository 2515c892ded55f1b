package domain

import "time"

type Event struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	IsActive    bool // Toggled by organizers; the record is otherwise immutable
	CreatedAt   time.Time
}
