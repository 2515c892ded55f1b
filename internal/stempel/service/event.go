package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/store"
	"github.com/vibestempel/stempeld/pkg/slogx"
)

const maxEventNameLen = 128

// EventService covers the organizer-facing event operations. Events are
// created once and immutable apart from the active flag.
type EventService struct {
	Store store.Store
}

// Create mints a new active event. Event ids are UUIDs because they end up
// inside QR payloads handed to third-party signage.
func (s *EventService) Create(ctx context.Context, name, description string) (domain.Event, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxEventNameLen {
		return domain.Event{}, ErrInvalidEvent
	}

	event := domain.Event{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   "admin",
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.Store.Events().Create(ctx, event); err != nil {
		log.Error("failed to create event", slog.String("name", name), slog.Any("error", err))
		return domain.Event{}, storeUnavailable(err)
	}

	log.Info("event created", slog.String("event_id", event.ID), slog.String("name", event.Name))
	return event, nil
}

// Get resolves an event by id regardless of the active flag: QR codes issued
// for a since-deactivated event must still resolve.
func (s *EventService) Get(ctx context.Context, eventID string) (domain.Event, error) {
	event, err := s.Store.Events().GetByID(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Event{}, ErrUnknownEvent
	}
	if err != nil {
		return domain.Event{}, storeUnavailable(err)
	}
	return event, nil
}

// ListActive returns the events attendees can still discover.
func (s *EventService) ListActive(ctx context.Context) ([]domain.Event, error) {
	events, err := s.Store.Events().ListActive(ctx)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return events, nil
}

// ListAll returns every event, including deactivated ones, for the organizer
// dashboard.
func (s *EventService) ListAll(ctx context.Context) ([]domain.Event, error) {
	events, err := s.Store.Events().ListAll(ctx)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return events, nil
}

// SetActive toggles whether the event appears in attendee listings. Check-ins
// against an inactive event still succeed.
func (s *EventService) SetActive(ctx context.Context, eventID string, active bool) error {
	log := slogx.FromContext(ctx)

	err := s.Store.Events().SetActive(ctx, eventID, active)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownEvent
	}
	if err != nil {
		log.Error("failed to toggle event", slog.String("event_id", eventID), slog.Any("error", err))
		return storeUnavailable(err)
	}

	log.Info("event active flag set", slog.String("event_id", eventID), slog.Bool("active", active))
	return nil
}
