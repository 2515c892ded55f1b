package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/store"
	"github.com/vibestempel/stempeld/pkg/idx"
	"github.com/vibestempel/stempeld/pkg/slogx"
)

var (
	ErrInvalidDeviceID = errors.New("invalid device id")
	ErrInvalidName     = errors.New("invalid display name")

	// ErrStoreUnavailable wraps store failures that the caller may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// How much of the device id leaks into the default display name. The full
// identifier is never exposed.
const deviceIDNamePrefix = 8

const maxDisplayNameLen = 64

// IdentityService maps opaque device identifiers to stable users, creating
// them on first sight.
type IdentityService struct {
	Store store.Store
}

// ResolveOrCreate returns the user owning deviceID, creating one with a
// generated display name if the device was never seen. Concurrent first-sight
// calls converge on a single user: creation is an insert-or-fetch under the
// device_id unique constraint, and a lost race resolves to the winner's row.
// Never reports not-found.
func (s *IdentityService) ResolveOrCreate(ctx context.Context, deviceID string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return domain.User{}, ErrInvalidDeviceID
	}

	now := time.Now().UTC()
	candidate := domain.User{
		ID:          idx.New().String(),
		DeviceID:    deviceID,
		DisplayName: defaultDisplayName(deviceID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	user, created, err := s.Store.Users().InsertIfAbsent(ctx, candidate)
	if err != nil {
		log.Error("failed to resolve user", slog.Any("error", err))
		return domain.User{}, storeUnavailable(err)
	}

	if created {
		log.Info("user created",
			slog.String("user_id", user.ID),
			slog.String("display_name", user.DisplayName),
		)
	}
	return user, nil
}

// UpdateDisplayName sets the display name for the device's user, creating the
// user first if this device was never seen (a dashboard touch counts as first
// sight).
func (s *IdentityService) UpdateDisplayName(ctx context.Context, deviceID, displayName string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > maxDisplayNameLen {
		return domain.User{}, ErrInvalidName
	}

	user, err := s.ResolveOrCreate(ctx, deviceID)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().UpdateDisplayName(ctx, user.ID, displayName); err != nil {
		log.Error("failed to update display name", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.User{}, storeUnavailable(err)
	}

	user.DisplayName = displayName
	log.Debug("display name updated", slog.String("user_id", user.ID))
	return user, nil
}

func defaultDisplayName(deviceID string) string {
	prefix := deviceID
	if len(prefix) > deviceIDNamePrefix {
		prefix = prefix[:deviceIDNamePrefix]
	}
	return "User-" + prefix
}

func storeUnavailable(err error) error {
	return fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
}
