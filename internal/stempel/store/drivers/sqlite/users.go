package sqlite

import (
	"context"
	"time"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, device_id, display_name, created_at, updated_at`

// InsertIfAbsent is the insert-or-fetch primitive behind identity resolution.
// The insert is conditional on the device_id UNIQUE constraint; when it loses
// the race the follow-up select observes the winner, which by then is
// committed (sqlite serializes writers).
func (r *usersRepo) InsertIfAbsent(ctx context.Context, u domain.User) (domain.User, bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, device_id, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO NOTHING`,
		u.ID, u.DeviceID, u.DisplayName, toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	if err != nil {
		return domain.User{}, false, mapConstraint(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.User{}, false, err
	}

	survivor, err := r.GetByDeviceID(ctx, u.DeviceID)
	if err != nil {
		return domain.User{}, false, err
	}
	return survivor, affected > 0, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetByDeviceID(ctx context.Context, deviceID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE device_id = ?`, deviceID)
	return scanUser(row)
}

func (r *usersRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`,
		displayName, toMillis(time.Now().UTC()), userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var created, updated int64
	if err := row.Scan(&u.ID, &u.DeviceID, &u.DisplayName, &created, &updated); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

// Timestamps are stored as integer unix milliseconds so MAX() and ordering
// behave exactly, independent of text formats.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
